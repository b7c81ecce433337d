// Package config loads the cargows configuration file.
//
// A configuration file is YAML (.yaml, .yml) or CUE (.cue). CUE files are
// unified with a built-in schema before decoding, so type errors are reported
// with file positions. Both formats are then checked with struct validation
// tags, and CARGOWS_* environment variables override individual settings.
//
// Example YAML:
//
//	cargo:
//	  path: /usr/local/bin/cargo
//	  manifest: ./Cargo.toml
//	  all_features: false
//	  features: [serde, std]
//	  load_out_dirs_from_check: true
//	logging:
//	  level: debug
//	  format: json
//
// The same in CUE:
//
//	cargo: {
//		path:         "/usr/local/bin/cargo"
//		manifest:     "./Cargo.toml"
//		all_features: false
//		features: ["serde", "std"]
//		load_out_dirs_from_check: true
//	}
//	logging: level: "debug"
package config
