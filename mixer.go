package modcore

// MixMode selects how the four channel voices are combined into the output
// buffer.
type MixMode int

const (
	MixMono MixMode = iota
	MixStereoHard
	MixStereoSoft
)

// frameWidth returns how many int16 slots one output frame occupies for m:
// one for mono, two (L, R) for either stereo formula.
func (m MixMode) frameWidth() int {
	if m == MixMono {
		return 1
	}
	return 2
}

// Channels returns the number of interleaved output channels this mix mode
// produces, for callers configuring an audio device or file header.
func (m MixMode) Channels() int {
	return m.frameWidth()
}

// FillBuffer renders sampleCount individual s16 samples into out starting at
// out[0], driving the tick clock once per emitted output frame, and returns
// true if the song continues or false if it has terminated (reached the end
// with looping disabled).
//
// sampleCount must be even for the two stereo modes, since a stereo frame is
// an L/R pair; any odd trailing slot is zero-filled.
func (e *Engine) FillBuffer(out []int16, sampleCount int, mode MixMode) bool {
	width := mode.frameWidth()
	frames := sampleCount / width

	idx := 0
	for f := 0; f < frames; f++ {
		if e.done {
			for i := 0; i < width; i++ {
				out[idx+i] = 0
			}
			idx += width
			continue
		}

		c0 := e.renderChannel(0)
		c1 := e.renderChannel(1)
		c2 := e.renderChannel(2)
		c3 := e.renderChannel(3)

		switch mode {
		case MixMono:
			out[idx] = mixMono(c0, c1, c2, c3)
		case MixStereoHard:
			out[idx], out[idx+1] = mixStereoHard(c0, c1, c2, c3)
		case MixStereoSoft:
			out[idx], out[idx+1] = mixStereoSoft(c0, c1, c2, c3)
		}
		idx += width

		e.sampleCounter--
		if e.sampleCounter <= 0 {
			e.sampleCounter = e.samplesPerTick
			e.tick()
		}
	}

	for ; idx < sampleCount; idx++ {
		out[idx] = 0
	}

	return !e.done
}

// renderChannel produces the next sample for channel index ci, or silence
// without advancing its phase if ci is muted.
func (e *Engine) renderChannel(ci int) int16 {
	if e.mute&(1<<uint(ci)) != 0 {
		return 0
	}
	return e.channels[ci].render()
}

// mixMono combines four channel samples into one mono frame.
func mixMono(c0, c1, c2, c3 int16) int16 {
	return int16((int(c0) + int(c1) + int(c2) + int(c3)) / 4)
}

// mixStereoHard applies Amiga LRRL hard panning: channels 0 and 3 to the
// left, 1 and 2 to the right.
func mixStereoHard(c0, c1, c2, c3 int16) (l, r int16) {
	l = int16((int(c0) + int(c3)) / 2)
	r = int16((int(c1) + int(c2)) / 2)
	return l, r
}

// mixStereoSoft applies a softer pan that bleeds each side into the other.
func mixStereoSoft(c0, c1, c2, c3 int16) (l, r int16) {
	left := int(c0) + int(c3)
	right := int(c1) + int(c2)
	l = int16((left*3 + right) / 8)
	r = int16((right*3 + left) / 8)
	return l, r
}
