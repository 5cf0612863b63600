package export

import (
	"goi/internal/core"
	"goi/internal/sims/factions"
)

type tee []factions.SnapshotSink

// Tee fans every snapshot out to sinks in order, stopping at the first error.
// Nil sinks are skipped; Tee returns nil when none remain.
func Tee(sinks ...factions.SnapshotSink) factions.SnapshotSink {
	var out tee
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return out
}

func (t tee) Snapshot(generation int, g *core.Grid) error {
	for _, s := range t {
		if err := s.Snapshot(generation, g); err != nil {
			return err
		}
	}
	return nil
}
