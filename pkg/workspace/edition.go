package workspace

import "fmt"

// Edition is a Rust language edition.
type Edition int

const (
	Edition2015 Edition = iota
	Edition2018
	Edition2021
	Edition2024
)

var editionNames = map[Edition]string{
	Edition2015: "2015",
	Edition2018: "2018",
	Edition2021: "2021",
	Edition2024: "2024",
}

// ParseEdition parses an edition string as it appears in cargo metadata.
func ParseEdition(s string) (Edition, error) {
	for edition, name := range editionNames {
		if name == s {
			return edition, nil
		}
	}
	return 0, fmt.Errorf("unknown edition %q", s)
}

// String returns the edition year.
func (e Edition) String() string {
	if name, ok := editionNames[e]; ok {
		return name
	}
	return fmt.Sprintf("Edition(%d)", int(e))
}

// MarshalText implements encoding.TextMarshaler.
func (e Edition) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}
