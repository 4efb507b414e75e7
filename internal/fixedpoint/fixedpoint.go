// Package fixedpoint holds the handful of pure integer conversions the
// player needs between MOD's native units (periods, BPM-ish tempo) and the
// 20.12 fixed-point domain the channel DSP runs in. No floating point, no
// allocation.
package fixedpoint

const (
	// Shift is the number of fractional bits in the 20.12 phase format used
	// for sample playback positions and increments.
	Shift = 12
	// One is 1.0 in 20.12 fixed point.
	One = 1 << Shift

	// ntscPeriodHz is the reference playback rate (in Hz) that an Amiga MOD
	// period of 254 corresponds to at 1:1 speed.
	ntscPeriodHz = 14000
	// refPeriod is the period value that plays back at ntscPeriodHz.
	refPeriod = 254
)

// PhaseIncrement returns the 20.12 fixed-point number of source-sample
// positions to advance per output sample, for a channel currently playing at
// the given Amiga period and an engine running at outputRate Hz.
//
// The multiplication is carried out in 64-bit width throughout; period and
// outputRate are both small (period in [113,856], outputRate typically in
// the tens of kHz) but the numerator (1<<12)*254*14000 alone exceeds 32 bits.
func PhaseIncrement(period, outputRate int) int {
	if period <= 0 || outputRate <= 0 {
		return 0
	}
	num := int64(One) * int64(refPeriod) * int64(ntscPeriodHz)
	den := int64(outputRate) * int64(period)
	return int(num / den)
}

// SamplesPerTick returns the number of output samples that elapse during one
// sequencer tick, given the MOD tempo value (ticks-per-second derivative,
// MOD convention) and the engine's output sample rate.
//
// samples_per_tick = (125 * outputRate / 50) / tempo; the 125/50 constants
// are kept visible rather than folded into 2.5 so the MOD timing convention
// stays recognizable.
func SamplesPerTick(tempo, outputRate int) int {
	if tempo <= 0 {
		return 0
	}
	return (125 * outputRate / 50) / tempo
}
