package cargo

import (
	"errors"
	"io"
	"strings"
	"testing"
)

const checkStream = `{"reason":"compiler-artifact","package_id":"serde_derive 1.0.0 (registry+https://github.com/rust-lang/crates.io-index)","target":{"name":"serde_derive","kind":["proc-macro"],"crate_types":["proc-macro"],"src_path":"/reg/serde_derive/src/lib.rs"},"filenames":["/t/debug/deps/libserde_derive-abc.so"],"fresh":true}
   Compiling foo v0.1.0
{"reason":"build-script-executed","package_id":"foo 0.1.0 (path+file:///ws/foo)","linked_libs":[],"linked_paths":[],"cfgs":["has_foo"],"env":[["FOO","1"]],"out_dir":"/t/debug/build/foo-123/out"}
{"not":"a message"}
{"reason":"build-finished","success":true}
`

func TestDecoder(t *testing.T) {
	dec := NewDecoder(strings.NewReader(checkStream))

	var (
		msgs      []*Message
		malformed int
	)
	for {
		msg, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if errors.Is(err, ErrMalformedMessage) {
			malformed++
			continue
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		msgs = append(msgs, msg)
	}

	if malformed != 2 {
		t.Errorf("malformed = %d, want 2", malformed)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}

	artifact := msgs[0]
	if artifact.Reason != ReasonCompilerArtifact {
		t.Errorf("reason = %q", artifact.Reason)
	}
	if !artifact.Target.HasKind(ProcMacroKind) {
		t.Errorf("expected proc-macro kind, got %v", artifact.Target.Kind)
	}
	if len(artifact.Filenames) != 1 {
		t.Errorf("filenames = %v", artifact.Filenames)
	}

	script := msgs[1]
	if script.Reason != ReasonBuildScriptExecuted {
		t.Errorf("reason = %q", script.Reason)
	}
	if script.OutDir != "/t/debug/build/foo-123/out" {
		t.Errorf("out_dir = %q", script.OutDir)
	}
	if len(script.Cfgs) != 1 || script.Cfgs[0] != "has_foo" {
		t.Errorf("cfgs = %v", script.Cfgs)
	}

	finished := msgs[2]
	if finished.Success == nil || !*finished.Success {
		t.Errorf("expected success=true")
	}
}

func TestDecoderMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "plain text", input: "warning: unused import\n"},
		{name: "empty line", input: "\n"},
		{name: "broken json", input: `{"reason":` + "\n"},
		{name: "missing reason", input: `{"package_id":"x"}` + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := NewDecoder(strings.NewReader(tt.input))
			_, err := dec.Decode()
			if !errors.Is(err, ErrMalformedMessage) {
				t.Fatalf("expected ErrMalformedMessage, got %v", err)
			}
			if _, err := dec.Decode(); err != io.EOF {
				t.Fatalf("expected EOF after malformed line, got %v", err)
			}
		})
	}
}

func TestDecoderLongLine(t *testing.T) {
	long := strings.Repeat("a", 12*1024*1024)
	input := `{"reason":"compiler-message","package_id":"` + long + `"}` + "\n" +
		`{"reason":"build-finished","success":true}`

	dec := NewDecoder(strings.NewReader(input))

	msg, err := dec.Decode()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msg.PackageID) != len(long) {
		t.Errorf("package_id length = %d, want %d", len(msg.PackageID), len(long))
	}

	msg, err = dec.Decode()
	if err != nil {
		t.Fatalf("unexpected error on trailing line: %v", err)
	}
	if msg.Reason != ReasonBuildFinished {
		t.Errorf("reason = %q", msg.Reason)
	}
	if dec.Line() != 2 {
		t.Errorf("line = %d, want 2", dec.Line())
	}

	if _, err := dec.Decode(); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestArtifactTargetHasKindNil(t *testing.T) {
	var target *ArtifactTarget
	if target.HasKind(ProcMacroKind) {
		t.Error("nil target should have no kinds")
	}
}
