package modcore

import "testing"

func newTestEngine(t *testing.T, insts []testInstrument, row0 [4]testCell) *Engine {
	t.Helper()
	raw := onePatternSong(cloneInstruments(insts), row0)
	e, err := New(raw, 14000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestEngineSilentModuleSingleTick(t *testing.T) {
	e := newTestEngine(t, fixtureInstruments, blankRow())

	buf := make([]int16, e.samplesPerTick)
	more := e.FillBuffer(buf, len(buf), MixMono)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("sample %d = %d, want 0 for a silent module", i, v)
		}
	}
	if !more {
		t.Fatalf("FillBuffer returned false after the first tick of a looping song")
	}

	for i := 0; i < 400 && !e.done; i++ {
		e.FillBuffer(buf, len(buf), MixMono)
	}
	if pos, _ := e.Position(); pos != 0 {
		t.Errorf("position = %d after wrap-around with looping enabled, want 0", pos)
	}
}

func TestEngineSingleNoteRampAdvancesPhase(t *testing.T) {
	insts := []testInstrument{{name: "ramp", data: rampSample(256), volume: 64}}
	e := newTestEngine(t, insts, [4]testCell{{period: 254, instrument: 1}})

	e.tick() // tickCounter starts at 0, so this runs the row tick for row 0

	c := &e.channels[0]
	if !c.on {
		t.Fatalf("channel 0 not triggered by row 0's note")
	}
	if c.phaseInc != 4096 {
		t.Errorf("phaseInc = %d, want 4096 at period 254 and 14000Hz", c.phaseInc)
	}

	for i := 0; i < 256; i++ {
		if !c.on {
			t.Fatalf("channel turned off early at sample %d of 256", i)
		}
		c.render()
	}
	if c.on {
		t.Errorf("channel still on after rendering the full 256-byte sample once")
	}
}

func TestEngineSetSpeedAndTempo(t *testing.T) {
	e := newTestEngine(t, fixtureInstruments, [4]testCell{{command: 0xF, param: 3}, {command: 0xF, param: 0x20}})
	if e.speed != 6 || e.tempo != 125 {
		t.Fatalf("defaults = speed %d tempo %d, want 6 125", e.speed, e.tempo)
	}

	e.tick()

	if e.speed != 3 {
		t.Errorf("speed = %d after F03, want 3", e.speed)
	}
	if e.tempo != 0x20 {
		t.Errorf("tempo = %d after F20, want %d", e.tempo, 0x20)
	}
}

func TestEngineTempoChangeIgnoredWhenSupportDisabled(t *testing.T) {
	e := newTestEngine(t, fixtureInstruments, [4]testCell{{command: 0xF, param: 0x20}})
	e.SetOption(OptionSupportTempo, false)

	e.tick()

	if e.tempo != 125 {
		t.Errorf("tempo = %d, want unchanged 125 when tempo support is disabled", e.tempo)
	}
}

func TestEnginePatternBreakExactRow(t *testing.T) {
	insts := cloneInstruments(fixtureInstruments)
	var pat0, pat1 [64][4]testCell
	pat0[10][0] = testCell{command: 0xD, param: 0x20} // D20 -> row 20 (decimal-in-hex-digits encoding)
	raw := buildMOD31("song", insts, []byte{0, 1}, [][64][4]testCell{pat0, pat1})

	e, err := New(raw, 14000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e.row = 10

	e.tick()

	if e.position != 1 {
		t.Errorf("position = %d after pattern break, want 1", e.position)
	}
	if e.row != 20 {
		t.Errorf("row = %d after D20 pattern break, want 20", e.row)
	}
}

func TestEnginePatternBreakIgnoresRowOver63(t *testing.T) {
	insts := cloneInstruments(fixtureInstruments)
	var pat0, pat1 [64][4]testCell
	pat0[5][0] = testCell{command: 0xD, param: 0x64} // decoded row = 6*10+4 = 64, out of range
	raw := buildMOD31("song", insts, []byte{0, 1}, [][64][4]testCell{pat0, pat1})

	e, err := New(raw, 14000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e.row = 5

	e.tick()

	if e.position != 0 {
		t.Errorf("position = %d after out-of-range pattern break, want unchanged 0", e.position)
	}
	if e.row != 6 {
		t.Errorf("row = %d after out-of-range pattern break, want default advance to 6", e.row)
	}
}

func TestEnginePositionJumpWithLoopEnabled(t *testing.T) {
	insts := cloneInstruments(fixtureInstruments)
	var pat0, pat1 [64][4]testCell
	pat1[0][0] = testCell{command: 0xB, param: 0} // B00 -> sentinel, treated as run off the end
	raw := buildMOD31("song", insts, []byte{0, 1}, [][64][4]testCell{pat0, pat1})

	e, err := New(raw, 14000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e.SetPosition(1)

	e.tick()

	if e.done {
		t.Errorf("engine marked done with looping enabled")
	}
	if e.position != 0 {
		t.Errorf("position = %d after loop-around, want 0", e.position)
	}
}

func TestEnginePositionJumpTerminatesWithLoopDisabled(t *testing.T) {
	insts := cloneInstruments(fixtureInstruments)
	var pat0, pat1 [64][4]testCell
	pat1[0][0] = testCell{command: 0xB, param: 0}
	raw := buildMOD31("song", insts, []byte{0, 1}, [][64][4]testCell{pat0, pat1})

	e, err := New(raw, 14000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e.SetOption(OptionLoop, false)
	e.SetPosition(1)

	e.tick()

	if !e.done {
		t.Errorf("engine not marked done after running past the sequence end with looping disabled")
	}
}

func TestEngineSetVolumeClamps(t *testing.T) {
	e := newTestEngine(t, fixtureInstruments, [4]testCell{{command: 0xC, param: 0x7F}})
	e.tick()
	if e.channels[0].vol != 64 {
		t.Errorf("vol = %d after C7F, want clamped to 64", e.channels[0].vol)
	}
}

func TestEngineVolumeSlideClampsAtFloor(t *testing.T) {
	e := newTestEngine(t, fixtureInstruments, [4]testCell{{command: 0xA, param: 0xF0}}) // -16 per row
	e.channels[0].vol = 5

	e.tick()

	if e.channels[0].vol != 0 {
		t.Errorf("vol = %d after volume slide past zero, want clamped to 0", e.channels[0].vol)
	}
}

func TestEngineOutOfRangeInstrumentIgnored(t *testing.T) {
	e := newTestEngine(t, fixtureInstruments, [4]testCell{{period: 254, instrument: 200}})
	e.tick()
	if e.channels[0].on {
		t.Errorf("channel triggered from an out-of-range instrument index, want ignored")
	}
}

func TestEngineTickInvariantsUnderSoak(t *testing.T) {
	insts := cloneInstruments(fixtureInstruments)
	var pat0, pat1, pat2 [64][4]testCell
	// Give every channel an initial note so its pitch is well-defined for the
	// invariant check below; a channel that never received a note has a zero
	// pitch, which is outside [113,856] but not a violation of anything.
	pat0[0] = [4]testCell{
		{period: 254, instrument: 1},
		{period: 254, instrument: 2},
		{period: 254, instrument: 1},
		{period: 254, instrument: 2},
	}
	pat0[10][1] = testCell{period: 254, instrument: 2, command: 0xA, param: 0x12}
	pat1[63][2] = testCell{command: 0xD, param: 0x10}
	pat2[30][3] = testCell{command: 0xB, param: 0}
	raw := buildMOD31("soak", insts, []byte{0, 1, 2}, [][64][4]testCell{pat0, pat1, pat2})

	e, err := New(raw, 44100)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := 0; i < 5000; i++ {
		e.tick()

		if e.position < 0 || e.position > e.module.SequenceLength {
			t.Fatalf("iteration %d: position %d out of range", i, e.position)
		}
		if e.row < 0 || e.row > 63 {
			t.Fatalf("iteration %d: row %d out of range [0,63]", i, e.row)
		}
		for ch := range e.channels {
			c := &e.channels[ch]
			if c.vol < 0 || c.vol > 64 {
				t.Fatalf("iteration %d channel %d: vol %d out of range [0,64]", i, ch, c.vol)
			}
			if c.pitch < 113 || c.pitch > 856 {
				t.Fatalf("iteration %d channel %d: pitch %d out of clamp range [113,856]", i, ch, c.pitch)
			}
		}
	}
}

func TestEngineGetLengthAndPosition(t *testing.T) {
	insts := cloneInstruments(fixtureInstruments)
	var pat0, pat1 [64][4]testCell
	raw := buildMOD31("song", insts, []byte{0, 1, 0}, [][64][4]testCell{pat0, pat1})

	e, err := New(raw, 14000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := e.GetLength(); got != 3 {
		t.Errorf("GetLength() = %d, want 3", got)
	}

	e.SetPosition(1)
	if pos, row := e.Position(); pos != 1 || row != 0 {
		t.Errorf("Position() = (%d,%d), want (1,0)", pos, row)
	}

	// Out-of-range seeks are ignored, current position is left unchanged.
	e.SetPosition(99)
	if pos, _ := e.Position(); pos != 1 {
		t.Errorf("position = %d after an out-of-range SetPosition, want unchanged 1", pos)
	}
}

func TestEngineFillBufferExactLength(t *testing.T) {
	e := newTestEngine(t, fixtureInstruments, blankRow())

	buf := make([]int16, 1001)
	e.FillBuffer(buf, len(buf), MixMono)
	if len(buf) != 1001 {
		t.Fatalf("len(buf) = %d, want unchanged 1001", len(buf))
	}
}
