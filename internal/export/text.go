package export

import (
	"bufio"
	"fmt"
	"io"

	"goi/internal/core"
	"goi/internal/sims/factions"
)

// TextSink prints each generation as a block of digit rows headed by
// "=== WORLD n ===". Dead cells print as '.'.
type TextSink struct {
	w *bufio.Writer
}

// NewTextSink writes snapshots to w.
func NewTextSink(w io.Writer) *TextSink {
	return &TextSink{w: bufio.NewWriter(w)}
}

// Snapshot implements factions.SnapshotSink.
func (s *TextSink) Snapshot(generation int, g *core.Grid) error {
	if _, err := fmt.Fprintf(s.w, "\n=== WORLD %d ===\n", generation); err != nil {
		return err
	}
	for _, row := range factions.FormatRows(g) {
		if _, err := s.w.WriteString(row); err != nil {
			return err
		}
		if err := s.w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return s.w.Flush()
}
