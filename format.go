package modcore

import (
	"encoding/binary"
	"strings"
)

const (
	rowsPerPattern  = 64
	channelsPerCell = 4
	bytesPerCell    = 4
	patternBytes    = rowsPerPattern * channelsPerCell * bytesPerCell

	instrumentTableOffset = 0x14
	instrumentEntryBytes  = 30

	magicOffset = 0x438

	// 31-instrument (M.K.) layout
	seqLenOffset31      = 0x3B6
	sequenceOffset31    = 0x3B8
	patternDataOffset31 = 0x43C
	numInstruments31    = 31

	// 15-instrument layout
	seqLenOffset15      = 0x1D6
	sequenceOffset15    = 0x1D8
	patternDataOffset15 = 0x258
	numInstruments15    = 15

	sequenceTableBytes = 128
)

// Instrument is one sample slot of a parsed module.
type Instrument struct {
	Name          string
	SampleData    []int8
	LengthBytes   int
	DefaultVolume int
	RepeatOffset  int
	RepeatLength  int // 2 means "no loop"
}

// HasLoop reports whether this instrument's sample loops.
func (in *Instrument) HasLoop() bool {
	return in.RepeatLength > 2
}

// Cell is one decoded 4-byte note event.
type Cell struct {
	Period     int
	Instrument int // 1-based; 0 = no instrument change
	Command    byte
	Param      byte
}

// Module is the read-only, post-load view of a MOD file. Pattern cells and
// sample data are decoded into native form once at load time; nothing is
// allocated afterwards and songBytes is not referenced again.
type Module struct {
	Title          string
	Format31       bool
	SequenceLength int
	Sequence       [sequenceTableBytes]byte
	Patterns       [][]Cell // patterns[patternIdx][row*4+channel]
	Instruments    []Instrument
}

// Load parses a SoundTracker/ProTracker MOD file out of songBytes. The
// caller may reuse or discard songBytes once Load returns.
func Load(songBytes []byte) (*Module, error) {
	format31 := len(songBytes) >= magicOffset+4 && string(songBytes[magicOffset:magicOffset+4]) == "M.K."

	numInstruments := numInstruments15
	seqLenOffset, seqOffset, patternOffset := seqLenOffset15, sequenceOffset15, patternDataOffset15
	if format31 {
		numInstruments = numInstruments31
		seqLenOffset, seqOffset, patternOffset = seqLenOffset31, sequenceOffset31, patternDataOffset31
	}

	if len(songBytes) < seqOffset+sequenceTableBytes {
		return nil, ErrTruncatedModule
	}

	m := &Module{
		Title:    strings.TrimRight(string(songBytes[0:20]), "\x00"),
		Format31: format31,
	}

	seqLen := int(songBytes[seqLenOffset])
	if seqLen > sequenceTableBytes {
		seqLen = sequenceTableBytes
	}
	m.SequenceLength = seqLen
	copy(m.Sequence[:], songBytes[seqOffset:seqOffset+sequenceTableBytes])

	maxPattern := 0
	for _, p := range m.Sequence {
		if int(p) > maxPattern {
			maxPattern = int(p)
		}
	}
	numPatterns := maxPattern + 1

	if len(songBytes) < patternOffset+numPatterns*patternBytes {
		return nil, ErrTruncatedModule
	}

	m.Patterns = make([][]Cell, numPatterns)
	for p := 0; p < numPatterns; p++ {
		base := patternOffset + p*patternBytes
		cells := make([]Cell, rowsPerPattern*channelsPerCell)
		for c := range cells {
			cells[c] = decodeCell(songBytes[base+c*bytesPerCell : base+c*bytesPerCell+bytesPerCell])
		}
		m.Patterns[p] = cells
	}

	instruments, err := readInstrumentTable(songBytes, numInstruments)
	if err != nil {
		return nil, err
	}
	m.Instruments = instruments

	sampleDataStart := patternOffset + numPatterns*patternBytes
	if sampleDataStart > len(songBytes) {
		sampleDataStart = len(songBytes)
	}
	remaining := songBytes[sampleDataStart:]
	for i := range m.Instruments {
		in := &m.Instruments[i]
		n := in.LengthBytes
		if n > len(remaining) {
			// Some real-world MODs record a sample length longer than what
			// remains in the file; clamp rather than fail the whole load.
			n = len(remaining)
		}
		data := make([]int8, in.LengthBytes)
		for j := 0; j < n; j++ {
			data[j] = int8(remaining[j])
		}
		in.SampleData = data
		in.LengthBytes = n
		remaining = remaining[n:]
	}

	return m, nil
}

func readInstrumentTable(songBytes []byte, numInstruments int) ([]Instrument, error) {
	if len(songBytes) < instrumentTableOffset+numInstruments*instrumentEntryBytes {
		return nil, ErrTruncatedModule
	}

	instruments := make([]Instrument, numInstruments)
	for i := 0; i < numInstruments; i++ {
		base := instrumentTableOffset + i*instrumentEntryBytes
		entry := songBytes[base : base+instrumentEntryBytes]

		name := strings.TrimRight(string(entry[0:22]), "\x00")
		length := int(binary.BigEndian.Uint16(entry[22:24])) * 2
		volume := int(entry[25] & 0x7F)
		repeatOffset := int(binary.BigEndian.Uint16(entry[26:28])) * 2
		repeatLength := int(binary.BigEndian.Uint16(entry[28:30])) * 2
		if repeatLength < 2 {
			repeatLength = 2
		}

		instruments[i] = Instrument{
			Name:          name,
			LengthBytes:   length,
			DefaultVolume: volume,
			RepeatOffset:  repeatOffset,
			RepeatLength:  repeatLength,
		}
	}

	return instruments, nil
}

// decodeCell decodes one 4-byte pattern cell: a 12-bit period, a split
// 8-bit instrument number, and a command/param pair.
func decodeCell(b []byte) Cell {
	return Cell{
		Period:     int(b[0]&0x0F)<<8 | int(b[1]),
		Instrument: int(b[0]&0xF0) | int(b[2]>>4),
		Command:    b[2] & 0x0F,
		Param:      b[3],
	}
}
