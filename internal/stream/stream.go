package stream

// Kind classifies where one standard stream of the child is routed.
type Kind int

const (
	// Inherit connects the child's stream to the supervisor's own stream.
	Inherit Kind = iota
	// Null connects the stream to the platform null device.
	Null
	// File redirects the stream to a named file.
	File
	// Shared routes stdout/stderr to the same underlying target as its
	// sibling stream. Not valid for stdin.
	Shared
)

func (k Kind) String() string {
	switch k {
	case Inherit:
		return "inherit"
	case Null:
		return "null"
	case File:
		return "file"
	case Shared:
		return "shared"
	}
	return "unknown"
}

// Disposition is the resolved routing decision for one standard stream.
// Path is set only when Kind is File.
type Disposition struct {
	Kind Kind
	Path string
}

// InheritPath is the literal path value that requests pass-through even on a
// path-taking flag.
const InheritPath = "-"

// ResolveStdin maps the stdin flag group to a disposition. Stdin has no
// Shared variant. An empty path or InheritPath means Inherit.
func ResolveStdin(null bool, path string) Disposition {
	if null {
		return Disposition{Kind: Null}
	}
	return fromPath(path)
}

// ResolveOutput maps one three-way stdout/stderr flag group to a single
// disposition. Precedence when several are set: null wins over shared, which
// wins over an explicit path. The flag layer guarantees mutual exclusivity,
// so the precedence only matters for programmatic callers.
func ResolveOutput(null, shared bool, path string) Disposition {
	if null {
		return Disposition{Kind: Null}
	}
	if shared {
		return Disposition{Kind: Shared}
	}
	return fromPath(path)
}

func fromPath(path string) Disposition {
	if path == "" || path == InheritPath {
		return Disposition{Kind: Inherit}
	}
	return Disposition{Kind: File, Path: path}
}
