// Package cargo wraps the two external cargo invocations the workspace model
// depends on: `cargo metadata` for the package, target and resolve listing, and
// `cargo check --message-format=json` for build-script telemetry.
//
// # Runner
//
// All process execution goes through the Runner interface so that callers can
// substitute fixture data in tests:
//
//	type Runner interface {
//	    Metadata(ctx context.Context, inv *Invocation) (*Metadata, error)
//	    Check(ctx context.Context, inv *Invocation) (*CheckOutput, error)
//	}
//
// CommandRunner is the exec-backed implementation. It waits for the process to
// exit before returning; nothing is streamed while the child is still running.
//
// # Feature selection
//
// FeatureSelection carries exactly one of the three feature modes cargo accepts.
// Callers decide the mode; this package only renders it into arguments.
//
// # Messages
//
// Decoder reads the newline-delimited JSON stream produced by
// `--message-format=json`. Lines that are not JSON objects with a "reason" field
// are reported as ErrMalformedMessage so callers can skip them.
package cargo
