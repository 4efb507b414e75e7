package config

import (
	"fmt"

	"github.com/halfwit/modcore/internal/comb"
)

// reverbBufferSize sizes every reverb's internal buffer: the fixed capacity,
// in interleaved samples, of the pass-through and hall ring buffers, and the
// initial size, in sample pairs, of a comb preset's growable buffer.
const reverbBufferSize = 10 * 1024

// combPresets maps -reverb flag values onto fixed comb filter settings. A
// zero decay means no effect at all; "hall" is handled separately since it
// selects the full stereo reverb network rather than a single comb.
var combPresets = map[string]struct {
	decay   float32
	delayMs int
}{
	"none":   {},
	"light":  {decay: 0.2, delayMs: 150},
	"medium": {decay: 0.3, delayMs: 250},
	"silly":  {decay: 0.5, delayMs: 2500},
}

// ReverbFromFlag initializes an instance of comb.Reverber according to the
// command line flag value.
func ReverbFromFlag(reverb string, sampleRate int) (comb.Reverber, error) {
	if reverb == "hall" {
		return comb.NewStereoReverb(reverbBufferSize, 0.8, 0.5, 0.3, sampleRate), nil
	}

	p, ok := combPresets[reverb]
	if !ok {
		return nil, fmt.Errorf("unrecognized reverb setting %q", reverb)
	}
	if p.decay == 0 {
		return comb.NewPassThrough(reverbBufferSize), nil
	}
	return comb.NewCombFixed(reverbBufferSize, p.decay, p.delayMs, sampleRate), nil
}
