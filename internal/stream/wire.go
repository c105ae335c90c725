package stream

import (
	"fmt"
	"os"

	"github.com/atomrun/atomrun/internal/sink"
)

// Stdio holds the three handles ready to attach to a child process. Close
// releases only the handles the wiring opened itself; the supervisor's own
// streams are never closed.
type Stdio struct {
	In, Out, Err *os.File

	owned []*os.File
}

// Close releases the wiring-owned handles. Safe to call more than once; the
// parent should call it as soon as the child has been spawned, since os/exec
// hands the child duplicated descriptors.
func (s *Stdio) Close() {
	for _, f := range s.owned {
		_ = f.Close()
	}
	s.owned = nil
}

func (s *Stdio) own(f *os.File) *os.File {
	s.owned = append(s.owned, f)
	return f
}

// Wirer turns three dispositions into concrete handles. The parent stream
// fields exist so tests can observe the Shared cross-swap without touching
// the process-wide os.Stdout/os.Stderr; zero value means the real ones.
type Wirer struct {
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File
}

func (w Wirer) parentStdin() *os.File {
	if w.Stdin != nil {
		return w.Stdin
	}
	return os.Stdin
}

func (w Wirer) parentStdout() *os.File {
	if w.Stdout != nil {
		return w.Stdout
	}
	return os.Stdout
}

func (w Wirer) parentStderr() *os.File {
	if w.Stderr != nil {
		return w.Stderr
	}
	return os.Stderr
}

// Wire resolves stdin independently and branches on the (stdout, stderr)
// pair, since Shared couples the two output streams:
//
//   - (Shared, Shared): the child's stdout goes where the parent's stderr
//     currently goes and vice versa. The swap is deliberate and matches the
//     documented behavior of combining both share flags.
//   - (Shared, File) / (File, Shared): one file is provisioned once and the
//     identical handle serves both streams, so the child's two descriptors
//     share a single open file description and write offset.
//   - A lone Shared next to Null or Inherit follows the sibling's target.
//
// File-backed output sinks come from the provisioner, which in staged mode
// registers each one for commit. On error every handle opened so far is
// closed; staged temp files are left to the committer's drain.
func (w Wirer) Wire(in, out, errd Disposition, prov *sink.Provisioner) (*Stdio, error) {
	s := &Stdio{}

	var err error
	s.In, err = w.wireStdin(s, in)
	if err != nil {
		s.Close()
		return nil, err
	}

	switch {
	case out.Kind == Shared && errd.Kind == Shared:
		s.Out = w.parentStderr()
		s.Err = w.parentStdout()
	case out.Kind == Shared && errd.Kind == File:
		f, ferr := prov.Create(errd.Path)
		if ferr != nil {
			s.Close()
			return nil, fmt.Errorf("provision stderr sink: %w", ferr)
		}
		s.own(f)
		s.Out, s.Err = f, f
	case out.Kind == File && errd.Kind == Shared:
		f, ferr := prov.Create(out.Path)
		if ferr != nil {
			s.Close()
			return nil, fmt.Errorf("provision stdout sink: %w", ferr)
		}
		s.own(f)
		s.Out, s.Err = f, f
	case out.Kind == Shared:
		// Sibling is Null or Inherit; both streams follow it.
		f, ferr := w.wireOutput(s, errd, w.parentStderr(), prov, "stderr")
		if ferr != nil {
			s.Close()
			return nil, ferr
		}
		s.Out, s.Err = f, f
	case errd.Kind == Shared:
		f, ferr := w.wireOutput(s, out, w.parentStdout(), prov, "stdout")
		if ferr != nil {
			s.Close()
			return nil, ferr
		}
		s.Out, s.Err = f, f
	default:
		s.Out, err = w.wireOutput(s, out, w.parentStdout(), prov, "stdout")
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Err, err = w.wireOutput(s, errd, w.parentStderr(), prov, "stderr")
		if err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

func (w Wirer) wireStdin(s *Stdio, d Disposition) (*os.File, error) {
	switch d.Kind {
	case Null:
		f, err := os.Open(os.DevNull)
		if err != nil {
			return nil, fmt.Errorf("open null device for stdin: %w", err)
		}
		return s.own(f), nil
	case File:
		f, err := os.Open(d.Path)
		if err != nil {
			return nil, fmt.Errorf("open stdin file: %w", err)
		}
		return s.own(f), nil
	default:
		return w.parentStdin(), nil
	}
}

func (w Wirer) wireOutput(s *Stdio, d Disposition, parent *os.File, prov *sink.Provisioner, name string) (*os.File, error) {
	switch d.Kind {
	case Null:
		f, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
		if err != nil {
			return nil, fmt.Errorf("open null device for %s: %w", name, err)
		}
		return s.own(f), nil
	case File:
		f, err := prov.Create(d.Path)
		if err != nil {
			return nil, fmt.Errorf("provision %s sink: %w", name, err)
		}
		return s.own(f), nil
	default:
		return parent, nil
	}
}
