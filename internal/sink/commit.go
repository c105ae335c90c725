package sink

import (
	"log/slog"
	"os"
)

// State tracks one artifact through the commit lifecycle.
type State int

const (
	// Staged means the temp file exists and the destination is untouched.
	Staged State = iota
	// Committed means the temp file was renamed onto its destination.
	Committed
	// Abandoned means the temp file was removed without reaching the
	// destination, either because the run never spawned a child or because
	// the rename itself failed.
	Abandoned
)

// Artifact is one staged output file awaiting commit.
type Artifact struct {
	Temp  string
	Dest  string
	State State
}

// Committer owns the staged artifacts of a single run. It must be drained
// exactly once on every exit path; the launcher installs Drain with defer so
// early failures cannot leak temp files. Destinations are never created or
// truncated before the rename succeeds.
type Committer struct {
	log     *slog.Logger
	pending []*Artifact
	armed   bool
	drained bool
}

func NewCommitter(log *slog.Logger) *Committer {
	return &Committer{log: log}
}

// Stage records a (temp, dest) pair for the drain to handle.
func (c *Committer) Stage(temp, dest string) {
	c.pending = append(c.pending, &Artifact{Temp: temp, Dest: dest})
	c.log.Debug("staged artifact", "temp", temp, "dest", dest)
}

// Arm marks the run as having reached spawn. An armed drain commits; an
// unarmed drain discards, since a run that never started has no output worth
// persisting.
func (c *Committer) Arm() { c.armed = true }

// Drain settles every pending artifact exactly once. Artifacts are
// independent: a failed rename is logged and its temp file removed, but the
// remaining artifacts are still attempted, and nothing already committed is
// rolled back. Atomicity is per file, not across the set.
func (c *Committer) Drain() {
	if c.drained {
		return
	}
	c.drained = true
	for _, a := range c.pending {
		if !c.armed {
			_ = os.Remove(a.Temp)
			a.State = Abandoned
			c.log.Debug("discarded staged artifact", "temp", a.Temp, "dest", a.Dest)
			continue
		}
		if err := os.Rename(a.Temp, a.Dest); err != nil {
			c.log.Error("commit failed", "temp", a.Temp, "dest", a.Dest, "error", err)
			_ = os.Remove(a.Temp)
			a.State = Abandoned
			continue
		}
		a.State = Committed
		c.log.Debug("committed artifact", "dest", a.Dest)
	}
}

// Artifacts returns a snapshot of the run's artifacts and their states.
func (c *Committer) Artifacts() []Artifact {
	out := make([]Artifact, len(c.pending))
	for i, a := range c.pending {
		out[i] = *a
	}
	return out
}
