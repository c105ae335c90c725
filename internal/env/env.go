package env

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// Spec describes how the child's environment block is composed. The
// supervisor's own environment is never mutated; composition happens on a
// private map that becomes the child's env slice.
type Spec struct {
	Clear bool     // start from an empty environment instead of inheriting
	Unset []string // names removed from the inherited environment
	Files []string // dotenv files applied in order
	Set   []string // KEY=VALUE pairs applied last
}

// Build composes the final environment in "K=V" form. Order: inherited base
// (unless Clear), minus Unset names, then Files in order, then Set pairs.
// Later sources override earlier ones. A Set pair with no '=' maps the whole
// string to an empty value, which keeps it distinguishable from an unset
// variable.
func (s Spec) Build() ([]string, error) {
	m := make(map[string]string)
	if !s.Clear {
		for _, kv := range os.Environ() {
			k, v := SplitKV(kv)
			if k == "" {
				continue
			}
			m[k] = v
		}
	}
	for _, k := range s.Unset {
		delete(m, k)
	}
	for _, f := range s.Files {
		vars, err := godotenv.Read(f)
		if err != nil {
			return nil, fmt.Errorf("load env file %s: %w", f, err)
		}
		for k, v := range vars {
			m[k] = v
		}
	}
	for _, kv := range s.Set {
		k, v := SplitKV(kv)
		if k == "" {
			continue
		}
		m[k] = v
	}
	out := make([]string, 0, len(m))
	for k, v := range m {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out, nil
}

// SplitKV splits a pair at the first '='. A string without '=' is a key
// mapped to the empty string.
func SplitKV(kv string) (string, string) {
	if i := strings.IndexByte(kv, '='); i >= 0 {
		return kv[:i], kv[i+1:]
	}
	return kv, ""
}
