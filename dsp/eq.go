package dsp

// ApplyEQ returns a copy of buf high-passed at lowCutHz and then low-passed
// at highCutHz. A zero cutoff, or one at or above Nyquist, disables that
// stage.
func ApplyEQ(buf Buffer, lowCutHz, highCutHz float64) Buffer {
	out := buf.Clone()
	sr := float64(buf.SampleRate)
	for _, ch := range out.Channels {
		if lowCutHz > 0 {
			NewHighpass(lowCutHz, sr).ProcessBlock(ch)
		}
		if highCutHz > 0 {
			NewLowpass(highCutHz, sr).ProcessBlock(ch)
		}
	}
	return out
}
