package modcore

import (
	"fmt"
	"io"
)

// DumpModule writes a human-readable summary of a parsed Module's title,
// instrument table and sequence to w. It never runs on the playback hot
// path; it exists for tools like cmd/moddump.
func DumpModule(w io.Writer, m *Module) {
	kind := "15-instrument"
	if m.Format31 {
		kind = "31-instrument (M.K.)"
	}
	fmt.Fprintf(w, "title: %q (%s)\n", m.Title, kind)
	fmt.Fprintf(w, "sequence length: %d\n", m.SequenceLength)
	fmt.Fprintf(w, "sequence: %v\n", m.Sequence[:m.SequenceLength])
	fmt.Fprintf(w, "patterns: %d\n", len(m.Patterns))

	fmt.Fprintln(w, "instruments:")
	for i, in := range m.Instruments {
		if in.LengthBytes == 0 {
			continue
		}
		loop := "no loop"
		if in.HasLoop() {
			loop = fmt.Sprintf("loop [%d,%d)", in.RepeatOffset, in.RepeatOffset+in.RepeatLength)
		}
		fmt.Fprintf(w, "  %2d: %-22q len=%-6d vol=%-3d %s\n", i+1, in.Name, in.LengthBytes, in.DefaultVolume, loop)
	}
}
