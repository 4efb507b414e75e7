package modcore

import (
	"encoding/binary"

	clone "github.com/huandu/go-clone/generic"
)

// testInstrument is the builder-friendly description of one instrument slot,
// cloned per table-driven test case with go-clone so that mutating one
// case's sample data or loop points never leaks into another.
type testInstrument struct {
	name         string
	data         []int8
	volume       int
	repeatOffset int
	repeatLength int // 0 means "no loop"; otherwise a real loop length
}

// testCell mirrors Cell but as a builder input (period in raw Amiga units,
// 1-based instrument, command/param as small ints for readability).
type testCell struct {
	period     int
	instrument int
	command    int
	param      int
}

func blankRow() [4]testCell { return [4]testCell{} }

// fixtureInstruments is the base instrument table cloned by tests that only
// need one or two voices: instrument 1 is a 256-byte ramp (0..255 read as
// signed), instrument 2 is a short loop.
var fixtureInstruments = []testInstrument{
	{name: "ramp", data: rampSample(256), volume: 64},
	{name: "loop", data: rampSample(64), volume: 64, repeatOffset: 0, repeatLength: 64},
}

func rampSample(n int) []int8 {
	data := make([]int8, n)
	for i := range data {
		data[i] = int8(i)
	}
	return data
}

func cloneInstruments(in []testInstrument) []testInstrument {
	return clone.Clone(in)
}

// buildMOD31 assembles a synthetic 31-instrument ("M.K.") MOD file in
// memory from a builder-level description. Unused instrument slots beyond
// len(insts) are emitted as empty (silent, zero-length) entries, matching a
// real MOD file's fixed 31-slot instrument table.
func buildMOD31(title string, insts []testInstrument, sequence []byte, patterns [][64][4]testCell) []byte {
	return buildMOD(title, 31, insts, sequence, patterns)
}

// buildMOD15 assembles the magic-less 15-instrument SoundTracker variant,
// whose sequence table starts right after the smaller instrument table.
func buildMOD15(title string, insts []testInstrument, sequence []byte, patterns [][64][4]testCell) []byte {
	return buildMOD(title, 15, insts, sequence, patterns)
}

func buildMOD(title string, numInstruments int, insts []testInstrument, sequence []byte, patterns [][64][4]testCell) []byte {
	buf := make([]byte, 0, 2048)

	titleBytes := make([]byte, 20)
	copy(titleBytes, title)
	buf = append(buf, titleBytes...)

	for i := 0; i < numInstruments; i++ {
		var in testInstrument
		if i < len(insts) {
			in = insts[i]
		}

		name := make([]byte, 22)
		copy(name, in.name)
		buf = append(buf, name...)

		buf = appendU16BE(buf, uint16(len(in.data)/2))
		buf = append(buf, 0) // finetune
		buf = append(buf, byte(in.volume&0x7F))

		repeatLenWord := uint16(1) // 1 -> *2 == 2, "no loop"
		if in.repeatLength >= 2 {
			repeatLenWord = uint16(in.repeatLength / 2)
		}
		buf = appendU16BE(buf, uint16(in.repeatOffset/2))
		buf = appendU16BE(buf, repeatLenWord)
	}

	buf = append(buf, byte(len(sequence)), 0)
	seqTable := make([]byte, 128)
	copy(seqTable, sequence)
	buf = append(buf, seqTable...)

	if numInstruments == 31 {
		buf = append(buf, []byte("M.K.")...)
	}

	for _, pat := range patterns {
		for _, row := range pat {
			for _, cell := range row {
				buf = append(buf, encodeCell(cell)...)
			}
		}
	}

	for i := 0; i < numInstruments; i++ {
		if i >= len(insts) {
			continue
		}
		buf = append(buf, int8SliceToBytes(insts[i].data)...)
	}

	return buf
}

func appendU16BE(buf []byte, v uint16) []byte {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	return append(buf, tmp[:]...)
}

func encodeCell(c testCell) []byte {
	period := c.period & 0xFFF
	instrument := c.instrument & 0xFF
	b0 := byte(instrument&0xF0) | byte((period>>8)&0x0F)
	b1 := byte(period & 0xFF)
	b2 := byte(instrument&0x0F)<<4 | byte(c.command&0x0F)
	b3 := byte(c.param)
	return []byte{b0, b1, b2, b3}
}

func int8SliceToBytes(data []int8) []byte {
	out := make([]byte, len(data))
	for i, v := range data {
		out[i] = byte(v)
	}
	return out
}

// onePatternSong builds a minimal single-pattern, single-position module
// with the given row-0 content (channels 0..3) and all other rows blank.
func onePatternSong(insts []testInstrument, row0 [4]testCell) []byte {
	var pattern [64][4]testCell
	pattern[0] = row0
	return buildMOD31("testsong", insts, []byte{0}, [][64][4]testCell{pattern})
}
