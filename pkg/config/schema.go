package config

import (
	"fmt"

	"cuelang.org/go/cue"
)

// fileSchema constrains CUE configuration files. It mirrors File.
const fileSchema = `
#Config: {
	cargo?: {
		path?:                     string
		manifest?:                 =~"Cargo\\.toml$"
		no_default_features?:      bool
		all_features?:             bool
		features?: [...string & !=""]
		load_out_dirs_from_check?: bool
		target?:                   string
	}
	logging?: {
		level?:         "trace" | "debug" | "info" | "warn" | "error" | "fatal"
		format?:        "console" | "json"
		output?:        string
		enable_caller?: bool
		time_format?:   "unix" | "unixms" | "rfc3339"
	}
	metrics?: {
		enabled?:           bool
		listen_address?:    string
		path?:              string
		namespace?:         string
		histogram_buckets?: [...number & >0]
	}
	tracing?: {
		enabled?:               bool
		exporter?:              "otlp" | "stdout" | "none"
		endpoint?:              string
		sampling_rate?:         number & >=0 & <=1
		max_export_batch_size?: int & >=0
		export_timeout?:        int & >=0
		headers?: [string]: string
		insecure?: bool
	}
}
`

// compileSchema compiles fileSchema in cp's context and returns #Config.
func (cp *CUEParser) compileSchema() (cue.Value, error) {
	val := cp.ctx.CompileString(fileSchema, cue.Filename("schema.cue"))
	if err := val.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("failed to compile config schema: %w", err)
	}
	return val.LookupPath(cue.ParsePath("#Config")), nil
}
