package modcore

import "github.com/halfwit/modcore/internal/fixedpoint"

// loopKind is the three-valued loop state of a playing channel.
type loopKind int

const (
	loopNone loopKind = iota
	loopPending
	looping
)

// effectKind is the pending inter-tick slide effect armed for a channel,
// cleared at the start of every row tick.
type effectKind int

const (
	effectNone effectKind = iota
	effectPortaUp
	effectPortaDown
)

// channel is the per-voice DSP and sequencer state for one of the four
// playback channels.
type channel struct {
	on        bool
	instIndex int
	vol       int // [0,64]
	pitch     int // Amiga period, [113,856] while on

	phasePos int // 20.12 fixed point index into sample
	phaseInc int // 20.12 fixed point advance per output sample

	sample      []int8
	lenFP       int
	repeatPosFP int
	repeatEndFP int
	loop        loopKind

	effect      effectKind
	effectParam byte
}

// trigger starts a new note on this channel from instrument in at the given
// period.
func (c *channel) trigger(in *Instrument, period, outputRate int) {
	if in.LengthBytes == 0 {
		c.on = false
		return
	}

	c.sample = in.SampleData
	c.lenFP = in.LengthBytes << fixedpoint.Shift
	c.repeatPosFP = in.RepeatOffset << fixedpoint.Shift
	c.repeatEndFP = (in.RepeatOffset + in.RepeatLength) << fixedpoint.Shift
	if in.RepeatLength != 2 {
		c.loop = loopPending
	} else {
		c.loop = loopNone
	}
	c.phasePos = 0
	c.setPeriod(period, outputRate)
	c.on = true
}

// setPeriod updates the channel's period and recomputes its phase increment
// (used both on note trigger and by the portamento effects).
func (c *channel) setPeriod(period, outputRate int) {
	c.pitch = period
	c.phaseInc = fixedpoint.PhaseIncrement(period, outputRate)
}

// render produces one s16 PCM sample for this channel and advances its
// phase accumulator, applying loop/one-shot-end handling.
//
// The end-of-sample and end-of-loop checks use >= rather than >: phasePos
// lands exactly on lenFP/repeatEndFP whenever phaseInc divides the region
// evenly (e.g. a 1:1 playback rate on a power-of-two-length sample), and the
// transition must fire at equality too or the next render reads one byte
// past the sample.
func (c *channel) render() int16 {
	if !c.on {
		return 0
	}

	ip := c.phasePos >> fixedpoint.Shift
	frac := c.phasePos & (fixedpoint.One - 1)

	c1 := int(c.sample[ip]) * 256
	c2 := c1
	if ip+1 < (c.lenFP >> fixedpoint.Shift) {
		c2 = int(c.sample[ip+1]) * 256
	}

	mixed := (c1*(fixedpoint.One-frac) + c2*frac) >> fixedpoint.Shift
	mixed = (mixed * c.vol) / 64

	c.phasePos += c.phaseInc

	if c.loop == loopNone || c.loop == loopPending {
		if c.phasePos >= c.lenFP {
			if c.loop == loopNone {
				c.on = false
			} else {
				c.loop = looping
			}
		}
	}
	if c.loop == looping {
		if c.phasePos >= c.repeatEndFP {
			c.phasePos = c.repeatPosFP
		}
	}

	return int16(mixed)
}

// tick applies this channel's pending inter-row slide effect, if any.
func (c *channel) tick(outputRate int) {
	switch c.effect {
	case effectPortaUp:
		p := c.pitch - int(c.effectParam)
		if p < 113 {
			p = 113
		}
		c.setPeriod(p, outputRate)
	case effectPortaDown:
		p := c.pitch + int(c.effectParam)
		if p > 856 {
			p = 856
		}
		c.setPeriod(p, outputRate)
	}
}
