package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CARGOWS_"

// LookupFunc retrieves an environment variable, like os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides settings from CARGOWS_* variables in the process environment.
func (f *File) ApplyEnv() error {
	return f.ApplyLookup(os.LookupEnv)
}

// ApplyLookup overrides settings from CARGOWS_* variables found by lookup.
func (f *File) ApplyLookup(lookup LookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s=%q: %w", EnvPrefix, name, v, err)
		}
		*dst = b
		return nil
	}

	str("CARGO", &f.Cargo.Path)
	str("MANIFEST", &f.Cargo.Manifest)
	str("TARGET", &f.Cargo.Target)
	if v, ok := lookup(EnvPrefix + "FEATURES"); ok {
		f.Cargo.Features = splitList(v)
	}
	for name, dst := range map[string]*bool{
		"ALL_FEATURES":             &f.Cargo.AllFeatures,
		"NO_DEFAULT_FEATURES":      &f.Cargo.NoDefaultFeatures,
		"LOAD_OUT_DIRS_FROM_CHECK": &f.Cargo.LoadOutDirsFromCheck,
		"METRICS_ENABLED":          &f.Metrics.Enabled,
		"TRACING_ENABLED":          &f.Tracing.Enabled,
	} {
		if err := boolean(name, dst); err != nil {
			return err
		}
	}

	str("LOG_LEVEL", &f.Logging.Level)
	str("LOG_FORMAT", &f.Logging.Format)
	str("METRICS_ADDR", &f.Metrics.ListenAddress)
	str("TRACING_EXPORTER", &f.Tracing.Exporter)
	str("TRACING_ENDPOINT", &f.Tracing.Endpoint)

	return nil
}

// splitList splits a comma or whitespace separated list, dropping empty items.
func splitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if fields == nil {
		return []string{}
	}
	return fields
}
