package workspace

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cargows/cargows/pkg/cargo"
	"github.com/cargows/cargows/pkg/telemetry"
)

func TestParseExternResources(t *testing.T) {
	res, err := ParseExternResources(context.Background(), strings.NewReader(checkOutput))
	require.NoError(t, err)

	assert.Equal(t, 2, res.Len())

	dir, ok := res.OutDir("util 1.0.0 (path+file:///ws/util)")
	require.True(t, ok)
	assert.Equal(t, "/ws/target/debug/build/util-1111/out", dir)

	cfgs, ok := res.Cfgs("util 1.0.0 (path+file:///ws/util)")
	require.True(t, ok)
	assert.Equal(t, []string{"has_simd"}, cfgs)

	path, ok := res.ProcMacroDylibPath("serde_derive 1.0.200 (registry+https://github.com/rust-lang/crates.io-index)")
	require.True(t, ok)
	assert.Equal(t, "/ws/target/debug/deps/libserde_derive-2222.so", path)

	_, ok = res.ProcMacroDylibPath("util 1.0.0 (path+file:///ws/util)")
	assert.False(t, ok, "non proc-macro artifacts are ignored")
}

func TestParseExternResources_LastWins(t *testing.T) {
	stream := `{"reason":"build-script-executed","package_id":"x","out_dir":"/first","cfgs":["a"]}
{"reason":"build-script-executed","package_id":"x","out_dir":"/second","cfgs":["b","c"]}
`
	res, err := ParseExternResources(context.Background(), strings.NewReader(stream))
	require.NoError(t, err)

	dir, _ := res.OutDir("x")
	assert.Equal(t, "/second", dir)
	cfgs, _ := res.Cfgs("x")
	assert.Equal(t, []string{"b", "c"}, cfgs)
}

func TestParseExternResources_SkipsNoise(t *testing.T) {
	stream := strings.Join([]string{
		`warning: unused variable`,
		`{"reason":"compiler-message","package_id":"x","message":{"rendered":"oops"}}`,
		`{"reason":"build-script-executed","package_id":"x",`,
		`{"package_id":"x","out_dir":"/no-reason"}`,
		`{"reason":"build-script-executed","package_id":"y","out_dir":"/y"}`,
		``,
	}, "\n")

	res, err := ParseExternResources(context.Background(), strings.NewReader(stream))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Len())

	_, ok := res.OutDir("x")
	assert.False(t, ok)
	dir, ok := res.OutDir("y")
	require.True(t, ok)
	assert.Equal(t, "/y", dir)
}

func TestParseExternResources_OversizedMessage(t *testing.T) {
	rendered := strings.Repeat("x", 11*1024*1024)
	stream := `{"reason":"compiler-message","package_id":"x","message":{"rendered":"` + rendered + `"}}` + "\n" +
		`{"reason":"build-script-executed","package_id":"y","out_dir":"/y","cfgs":["big"]}` + "\n"

	res, err := ParseExternResources(context.Background(), strings.NewReader(stream))
	require.NoError(t, err)

	dir, ok := res.OutDir("y")
	require.True(t, ok)
	assert.Equal(t, "/y", dir)

	cfgs, ok := res.Cfgs("y")
	require.True(t, ok)
	assert.Equal(t, []string{"big"}, cfgs)
}

func TestParseExternResources_ReadFailure(t *testing.T) {
	r := io.MultiReader(strings.NewReader("{\"reason\":\"build-finished\"}\n"), failingReader{})
	_, err := ParseExternResources(context.Background(), r)
	require.Error(t, err)
	assert.False(t, errors.Is(err, cargo.ErrMalformedMessage))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("pipe closed")
}

func TestFirstDylib(t *testing.T) {
	tests := []struct {
		name      string
		filenames []string
		want      string
		wantOK    bool
	}{
		{name: "so", filenames: []string{"/t/libm.rlib", "/t/libm.so"}, want: "/t/libm.so", wantOK: true},
		{name: "dylib", filenames: []string{"/t/libm.dylib"}, want: "/t/libm.dylib", wantOK: true},
		{name: "dll upper case", filenames: []string{`C:\t\m.pdb`, `C:\t\m.DLL`}, want: `C:\t\m.DLL`, wantOK: true},
		{name: "first match wins", filenames: []string{"/t/a.so", "/t/b.so"}, want: "/t/a.so", wantOK: true},
		{name: "versioned so is not a dylib", filenames: []string{"/t/libm.so.1"}},
		{name: "none", filenames: []string{"/t/libm.rlib", "/t/m.d"}},
		{name: "empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := firstDylib(tt.filenames)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadExternResources(t *testing.T) {
	t.Run("non-zero exit keeps emitted messages", func(t *testing.T) {
		runner := &fakeRunner{check: checkOutput, checkExit: 101}
		cfg := &Config{NoDefaultFeatures: true}

		var logs bytes.Buffer
		ctx := telemetry.NewWriterLogger(&logs, "debug").WithContext(context.Background())

		res, err := LoadExternResources(ctx, runner, "/ws/Cargo.toml", cfg)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Len())
		assert.Contains(t, logs.String(), `"error":"cargo check: exit status 101"`)
		assert.Contains(t, logs.String(), `"level":"warn"`)

		require.Len(t, runner.checkCalls, 1)
		assert.Equal(t, "/ws/Cargo.toml", runner.checkCalls[0].ManifestPath)
		assert.Equal(t, cargo.FeaturesNoDefault, runner.checkCalls[0].Features.Mode)
		assert.Empty(t, runner.metadataCalls)
	})

	t.Run("spawn failure", func(t *testing.T) {
		runner := &fakeRunner{checkErr: errors.New("exec: \"cargo\": executable file not found in $PATH")}

		_, err := LoadExternResources(context.Background(), runner, "/ws/Cargo.toml", nil)
		require.Error(t, err)
		assert.True(t, IsFetchError(err))
		assert.Contains(t, err.Error(), "cargo check")
	})
}

func TestExternResourcesIDs(t *testing.T) {
	res, err := ParseExternResources(context.Background(), strings.NewReader(checkOutput))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"serde_derive 1.0.200 (registry+https://github.com/rust-lang/crates.io-index)",
		"util 1.0.0 (path+file:///ws/util)",
	}, res.IDs())
}
