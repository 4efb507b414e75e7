package modcore

import (
	"fmt"
	"io"

	"github.com/halfwit/modcore/internal/fixedpoint"
)

// Option identifies a boolean playback option recognised by SetOption.
type Option int

const (
	OptionLoop Option = iota
	OptionSupportTempo
)

// Engine is the playback state machine: the sequencer cursor, the per-tick
// clock, and the four channel DSP voices. It is created from a parsed
// Module by New and driven exclusively by FillBuffer.
//
// An Engine is single-threaded: callers must serialize their own calls to
// it, but distinct Engine instances never interact and may run
// concurrently.
type Engine struct {
	module     *Module
	outputRate int

	position int
	row      int

	speed int
	tempo int

	tickCounter    int
	samplesPerTick int
	sampleCounter  int

	songLoop     bool
	supportTempo bool

	channels [channelsPerCell]channel

	mute uint8 // bitmask of muted channels, channel 0 in the LSB

	done bool

	debug io.Writer
}

// SetMute sets the muted-channel bitmask (channel 0 in the LSB). A muted
// channel contributes silence to every mix mode and its phase does not
// advance while muted.
func (e *Engine) SetMute(mask uint8) {
	e.mute = mask
}

// New parses moduleBytes and returns an Engine configured with the default
// playback options (speed 6, tempo 125, looping and tempo-commands on),
// ready to produce audio at outputRate Hz.
func New(moduleBytes []byte, outputRate int) (*Engine, error) {
	module, err := Load(moduleBytes)
	if err != nil {
		return nil, fmt.Errorf("modcore: load: %w", err)
	}

	e := &Engine{
		module:       module,
		outputRate:   outputRate,
		speed:        6,
		tempo:        125,
		songLoop:     true,
		supportTempo: true,
	}
	// tickCounter starts at 0 (not speed): tick() decrements-then-checks, so
	// the very first call sees a non-positive counter and runs the row tick
	// immediately, triggering row 0 without an idle lead-in of silent ticks.
	e.samplesPerTick = fixedpoint.SamplesPerTick(e.tempo, e.outputRate)
	e.sampleCounter = e.samplesPerTick

	return e, nil
}

// SetOption sets a boolean playback option. Unrecognised option ids are
// ignored.
func (e *Engine) SetOption(opt Option, enabled bool) {
	switch opt {
	case OptionLoop:
		e.songLoop = enabled
	case OptionSupportTempo:
		e.supportTempo = enabled
	}
}

// SetDebugWriter installs an optional sink that receives one line per
// ignored/unsupported effect and per loop/terminate transition. A nil writer
// (the default) disables reporting entirely; it is never on the hot path
// when nil.
func (e *Engine) SetDebugWriter(w io.Writer) {
	e.debug = w
}

// GetLength returns the number of active sequence entries in the module.
func (e *Engine) GetLength() int {
	return e.module.SequenceLength
}

// SetPosition seeks playback to the given sequence position, resetting the
// row to 0 and clearing any prior terminal "done" state. Out-of-range
// positions are ignored.
func (e *Engine) SetPosition(pos int) {
	if pos < 0 || pos >= e.module.SequenceLength {
		return
	}
	e.position = pos
	e.row = 0
	e.done = false
}

// Position reports the current sequence position and row, for progress
// reporting callers (not part of the core sequencing invariants).
func (e *Engine) Position() (order, row int) {
	return e.position, e.row
}

// Speed returns the current ticks-per-row value.
func (e *Engine) Speed() int { return e.speed }

// Tempo returns the current tempo value in the MOD convention.
func (e *Engine) Tempo() int { return e.tempo }

// Module returns the parsed, read-only module view backing this engine.
func (e *Engine) Module() *Module {
	return e.module
}

func (e *Engine) logf(format string, args ...any) {
	if e.debug == nil {
		return
	}
	fmt.Fprintf(e.debug, format+"\n", args...)
}

// tick runs the sequencer once per samplesPerTick output frames. It
// distinguishes the inter-row tick (slide effects only) from the row tick
// (full cell decode and command dispatch).
func (e *Engine) tick() {
	e.tickCounter--
	if e.tickCounter > 0 {
		for i := range e.channels {
			e.channels[i].tick(e.outputRate)
		}
		return
	}

	e.tickCounter = e.speed

	pattern := e.module.Patterns[e.module.Sequence[e.position]]
	rowBase := e.row * channelsPerCell

	rowJumped := false

	for ch := 0; ch < channelsPerCell; ch++ {
		c := &e.channels[ch]
		cell := pattern[rowBase+ch]

		c.effect = effectNone

		if cell.Period != 0 && cell.Instrument <= len(e.module.Instruments) {
			instIdx := c.instIndex
			if cell.Instrument != 0 {
				instIdx = cell.Instrument - 1
				c.vol = e.module.Instruments[instIdx].DefaultVolume
			}
			c.instIndex = instIdx
			c.trigger(&e.module.Instruments[instIdx], cell.Period, e.outputRate)
		}

		switch cell.Command {
		case 0: // arpeggio
			if cell.Param != 0 {
				e.logf("channel %d: non-zero arpeggio unsupported, ignored", ch)
			}
		case 1: // portamento up
			c.effect = effectPortaUp
			c.effectParam = cell.Param
		case 2: // portamento down
			c.effect = effectPortaDown
			c.effectParam = cell.Param
		case 10: // volume slide
			c.vol = clamp(c.vol+int(int8(cell.Param)), 0, 64)
		case 11: // position jump
			e.row = 0
			if cell.Param == 0 {
				// Sentinel: force the terminal/loop check below to fire,
				// exactly as if position had run off the end of the sequence.
				e.position = e.module.SequenceLength
			} else {
				e.position = int(cell.Param)
			}
			rowJumped = true
		case 12: // set volume
			c.vol = clamp(int(cell.Param), 0, 64)
		case 13: // pattern break
			r := int(cell.Param>>4)*10 + int(cell.Param&0xF)
			if r <= 63 {
				e.row = r
				e.position++
				rowJumped = true
			} else {
				e.logf("channel %d: pattern break to row %d ignored", ch, r)
			}
		case 14: // extended
			e.logf("channel %d: extended command E%X ignored", ch, cell.Param>>4)
		case 15: // set speed/tempo
			switch {
			case cell.Param > 0 && cell.Param < 0x20:
				e.speed = int(cell.Param)
				e.tickCounter = e.speed
			case cell.Param >= 0x20:
				if e.supportTempo {
					e.tempo = int(cell.Param)
					e.samplesPerTick = fixedpoint.SamplesPerTick(e.tempo, e.outputRate)
				} else {
					e.logf("tempo change to %d ignored, tempo support disabled", cell.Param)
				}
			default:
				e.logf("channel %d: F00 ignored", ch)
			}
		default:
			e.logf("channel %d: command %X ignored", ch, cell.Command)
		}
	}

	if !rowJumped {
		e.row++
		if e.row > 63 {
			e.row = 0
			e.position++
		}
	}

	if e.position >= e.module.SequenceLength {
		e.position = 0
		if !e.songLoop {
			e.logf("song end reached, looping disabled")
			e.done = true
		} else {
			e.logf("song end reached, looping to position 0")
		}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
