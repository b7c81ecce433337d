package workspace

import (
	"context"
	"strings"
	"testing"

	"github.com/cargows/cargows/pkg/cargo"
)

// fakeRunner serves canned cargo responses and records the invocations it saw.
type fakeRunner struct {
	meta    *cargo.Metadata
	metaErr error

	check     string
	checkExit int
	checkErr  error

	metadataCalls []*cargo.Invocation
	checkCalls    []*cargo.Invocation
}

func (f *fakeRunner) Metadata(_ context.Context, inv *cargo.Invocation) (*cargo.Metadata, error) {
	f.metadataCalls = append(f.metadataCalls, inv)
	if f.metaErr != nil {
		return nil, f.metaErr
	}
	return f.meta, nil
}

func (f *fakeRunner) Check(_ context.Context, inv *cargo.Invocation) (*cargo.CheckOutput, error) {
	f.checkCalls = append(f.checkCalls, inv)
	if f.checkErr != nil {
		return nil, f.checkErr
	}
	return &cargo.CheckOutput{
		Stdout:   strings.NewReader(f.check),
		ExitCode: f.checkExit,
	}, nil
}

func mustParseMetadata(t *testing.T, doc string) *cargo.Metadata {
	t.Helper()
	meta, err := cargo.ParseMetadata([]byte(doc))
	if err != nil {
		t.Fatalf("ParseMetadata() error = %v", err)
	}
	return meta
}

// workspaceDoc is a two-member workspace: app depends on a renamed util and
// on serde_derive, a proc-macro. util exists in two versions.
const workspaceDoc = `{
  "version": 1,
  "workspace_root": "/ws",
  "target_directory": "/ws/target",
  "workspace_members": ["app 0.1.0 (path+file:///ws/app)", "util 1.0.0 (path+file:///ws/util)"],
  "packages": [
    {
      "id": "app 0.1.0 (path+file:///ws/app)",
      "name": "app",
      "version": "0.1.0",
      "edition": "2021",
      "manifest_path": "/ws/app/Cargo.toml",
      "targets": [
        {"name": "app", "kind": ["bin"], "crate_types": ["bin"], "src_path": "/ws/app/src/main.rs"},
        {"name": "smoke", "kind": ["test"], "crate_types": ["bin"], "src_path": "/ws/app/tests/smoke.rs"}
      ]
    },
    {
      "id": "util 1.0.0 (path+file:///ws/util)",
      "name": "util",
      "version": "1.0.0",
      "edition": "2018",
      "manifest_path": "/ws/util/Cargo.toml",
      "targets": [
        {"name": "util", "kind": ["lib"], "crate_types": ["lib"], "src_path": "/ws/util/src/lib.rs"},
        {"name": "build-script-build", "kind": ["custom-build"], "crate_types": ["bin"], "src_path": "/ws/util/build.rs"}
      ]
    },
    {
      "id": "util 0.9.2 (registry+https://github.com/rust-lang/crates.io-index)",
      "name": "util",
      "version": "0.9.2",
      "manifest_path": "/registry/util-0.9.2/Cargo.toml",
      "targets": [
        {"name": "util", "kind": ["rlib", "cdylib"], "crate_types": ["rlib", "cdylib"], "src_path": "/registry/util-0.9.2/src/lib.rs"}
      ]
    },
    {
      "id": "serde_derive 1.0.200 (registry+https://github.com/rust-lang/crates.io-index)",
      "name": "serde_derive",
      "version": "1.0.200",
      "edition": "2015",
      "manifest_path": "/registry/serde_derive-1.0.200/Cargo.toml",
      "targets": [
        {"name": "serde_derive", "kind": ["proc-macro"], "crate_types": ["proc-macro"], "src_path": "/registry/serde_derive-1.0.200/src/lib.rs"}
      ]
    }
  ],
  "resolve": {
    "root": null,
    "nodes": [
      {
        "id": "app 0.1.0 (path+file:///ws/app)",
        "deps": [
          {"name": "helpers", "pkg": "util 1.0.0 (path+file:///ws/util)"},
          {"name": "serde_derive", "pkg": "serde_derive 1.0.200 (registry+https://github.com/rust-lang/crates.io-index)"}
        ],
        "features": ["default", "fast"]
      },
      {
        "id": "util 1.0.0 (path+file:///ws/util)",
        "deps": [
          {"name": "util", "pkg": "util 0.9.2 (registry+https://github.com/rust-lang/crates.io-index)"}
        ],
        "features": []
      },
      {
        "id": "util 0.9.2 (registry+https://github.com/rust-lang/crates.io-index)",
        "deps": [],
        "features": ["std"]
      },
      {
        "id": "serde_derive 1.0.200 (registry+https://github.com/rust-lang/crates.io-index)",
        "deps": [],
        "features": []
      }
    ]
  }
}`

// aliasDoc has a bin crate a depending on lib crate b under the alias "b".
const aliasDoc = `{
  "version": 1,
  "workspace_root": "/a",
  "target_directory": "/a/target",
  "workspace_members": ["a 1.0.0 (path+file:///a)"],
  "packages": [
    {"id": "a 1.0.0 (path+file:///a)", "name": "a", "version": "1.0.0", "edition": "2021",
     "manifest_path": "/a/Cargo.toml",
     "targets": [{"name": "a", "kind": ["bin"], "crate_types": ["bin"], "src_path": "/a/src/main.rs"}]},
    {"id": "b 2.0.0 (path+file:///b)", "name": "b", "version": "2.0.0", "edition": "2018",
     "manifest_path": "/b/Cargo.toml",
     "targets": [{"name": "b", "kind": ["lib"], "crate_types": ["lib"], "src_path": "/b/src/lib.rs"}]}
  ],
  "resolve": {
    "nodes": [
      {"id": "a 1.0.0 (path+file:///a)", "deps": [{"name": "b", "pkg": "b 2.0.0 (path+file:///b)"}], "features": []},
      {"id": "b 2.0.0 (path+file:///b)", "deps": [], "features": []}
    ]
  }
}`

// checkOutput is `cargo check --message-format=json` output for workspaceDoc.
const checkOutput = `{"reason":"build-script-executed","package_id":"util 1.0.0 (path+file:///ws/util)","linked_libs":[],"linked_paths":[],"cfgs":["has_simd"],"env":[],"out_dir":"/ws/target/debug/build/util-1111/out"}
   Compiling app v0.1.0 (/ws/app)
{"reason":"compiler-artifact","package_id":"serde_derive 1.0.200 (registry+https://github.com/rust-lang/crates.io-index)","target":{"name":"serde_derive","kind":["proc-macro"],"crate_types":["proc-macro"],"src_path":"/registry/serde_derive-1.0.200/src/lib.rs"},"filenames":["/ws/target/debug/deps/serde_derive.d","/ws/target/debug/deps/libserde_derive-2222.so"],"executable":null,"fresh":false}
{"reason":"compiler-artifact","package_id":"util 1.0.0 (path+file:///ws/util)","target":{"name":"util","kind":["lib"],"crate_types":["lib"],"src_path":"/ws/util/src/lib.rs"},"filenames":["/ws/target/debug/deps/libutil-3333.rlib"],"executable":null,"fresh":false}
{"reason":"build-finished","success":true}
`
