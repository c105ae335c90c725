// Package sink materializes output files for a supervised run. In direct
// mode files are created at their final paths immediately; in staged mode
// they are created as uniquely named temp files and renamed into place by
// the Committer only after the child has exited.
package sink

import (
	"fmt"
	"os"
)

// Provisioner creates writable output sinks for child streams and the
// exit-code artifact.
type Provisioner struct {
	staging   string
	committer *Committer
}

// NewDirect returns a provisioner that creates (or truncates) files at their
// final destination with no atomicity guarantee.
func NewDirect() *Provisioner {
	return &Provisioner{}
}

// NewStaged returns a provisioner that creates every sink as a temp file in
// staging and registers the (temp, dest) pair with c for later commit. The
// staging directory is created on demand.
func NewStaged(staging string, c *Committer) *Provisioner {
	return &Provisioner{staging: staging, committer: c}
}

// Create returns a writable handle for the sink that will end up at dest.
// Any failure here is fatal to the run: it happens before the child is
// spawned, so nothing has been written that needs preserving.
func (p *Provisioner) Create(dest string) (*os.File, error) {
	if p.committer == nil {
		f, err := os.Create(dest)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", dest, err)
		}
		return f, nil
	}
	if err := os.MkdirAll(p.staging, 0o750); err != nil {
		return nil, fmt.Errorf("create staging dir %s: %w", p.staging, err)
	}
	f, err := os.CreateTemp(p.staging, "atomrun-*")
	if err != nil {
		return nil, fmt.Errorf("create staged file for %s: %w", dest, err)
	}
	p.committer.Stage(f.Name(), dest)
	return f, nil
}
