package workspace

import (
	"strings"

	"github.com/cargows/cargows/pkg/cargo"
)

// TargetKind is the coarse classification of a cargo target.
type TargetKind int

const (
	TargetKindBin TargetKind = iota
	// TargetKindLib is any kind of lib crate-type (dylib, rlib, proc-macro, ...).
	TargetKindLib
	TargetKindExample
	TargetKindTest
	TargetKindBench
	TargetKindOther
)

// NewTargetKind classifies a target from its raw kind labels. The first label
// that matches a rule decides; later labels are not consulted.
func NewTargetKind(kinds []string) TargetKind {
	for _, kind := range kinds {
		switch {
		case kind == "bin":
			return TargetKindBin
		case kind == "test":
			return TargetKindTest
		case kind == "bench":
			return TargetKindBench
		case kind == "example":
			return TargetKindExample
		case kind == cargo.ProcMacroKind:
			return TargetKindLib
		case strings.Contains(kind, "lib"):
			return TargetKindLib
		}
	}
	return TargetKindOther
}

// IsProcMacro reports whether kinds is exactly the single proc-macro label.
func IsProcMacro(kinds []string) bool {
	return len(kinds) == 1 && kinds[0] == cargo.ProcMacroKind
}

// String returns the lower-case name of the kind.
func (k TargetKind) String() string {
	switch k {
	case TargetKindBin:
		return "bin"
	case TargetKindLib:
		return "lib"
	case TargetKindExample:
		return "example"
	case TargetKindTest:
		return "test"
	case TargetKindBench:
		return "bench"
	default:
		return "other"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k TargetKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}
