package cargo

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Reason discriminates cargo JSON messages.
type Reason string

const (
	ReasonBuildScriptExecuted Reason = "build-script-executed"
	ReasonCompilerArtifact    Reason = "compiler-artifact"
	ReasonCompilerMessage     Reason = "compiler-message"
	ReasonBuildFinished       Reason = "build-finished"
)

// ProcMacroKind is the target kind label cargo uses for procedural macro crates.
const ProcMacroKind = "proc-macro"

// ErrMalformedMessage is returned by Decoder.Decode for lines that are not a
// cargo JSON message.
var ErrMalformedMessage = errors.New("malformed cargo message")

// Message is a flattened cargo JSON message. Which fields are populated
// depends on Reason.
type Message struct {
	Reason    Reason `json:"reason"`
	PackageID string `json:"package_id,omitempty"`

	// compiler-artifact
	Target     *ArtifactTarget `json:"target,omitempty"`
	Filenames  []string        `json:"filenames,omitempty"`
	Executable *string         `json:"executable,omitempty"`
	Fresh      bool            `json:"fresh,omitempty"`

	// build-script-executed
	OutDir      string     `json:"out_dir,omitempty"`
	Cfgs        []string   `json:"cfgs,omitempty"`
	LinkedLibs  []string   `json:"linked_libs,omitempty"`
	LinkedPaths []string   `json:"linked_paths,omitempty"`
	Env         [][]string `json:"env,omitempty"`

	// build-finished
	Success *bool `json:"success,omitempty"`
}

// ArtifactTarget describes the target a compiler-artifact message was produced for.
type ArtifactTarget struct {
	Name       string   `json:"name"`
	Kind       []string `json:"kind"`
	CrateTypes []string `json:"crate_types"`
	SrcPath    string   `json:"src_path"`
}

// HasKind reports whether the artifact's target kind list contains kind.
func (t *ArtifactTarget) HasKind(kind string) bool {
	if t == nil {
		return false
	}
	for _, k := range t.Kind {
		if k == kind {
			return true
		}
	}
	return false
}

// Decoder reads cargo messages from a newline-delimited JSON stream. Lines
// are not length-limited: compiler-message payloads carry rendered
// diagnostics and can be arbitrarily large.
type Decoder struct {
	r    *bufio.Reader
	line int
}

// NewDecoder creates a new message decoder.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r: bufio.NewReaderSize(r, 64*1024),
	}
}

// Line returns the 1-based number of the line most recently read.
func (d *Decoder) Line() int {
	return d.line
}

// Decode reads the next message. It returns io.EOF at the end of the stream and
// an error wrapping ErrMalformedMessage for a line that is not a cargo message;
// decoding may continue after a malformed line.
func (d *Decoder) Decode() (*Message, error) {
	raw, err := d.r.ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read error: %w", err)
	}
	if len(raw) == 0 && errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	d.line++

	line := bytes.TrimSpace(raw)
	if len(line) == 0 || line[0] != '{' {
		return nil, fmt.Errorf("line %d: %w: not a JSON object", d.line, ErrMalformedMessage)
	}

	var msg Message
	if err := json.Unmarshal(line, &msg); err != nil {
		return nil, fmt.Errorf("line %d: %w: %v", d.line, ErrMalformedMessage, err)
	}
	if msg.Reason == "" {
		return nil, fmt.Errorf("line %d: %w: missing reason", d.line, ErrMalformedMessage)
	}

	return &msg, nil
}
