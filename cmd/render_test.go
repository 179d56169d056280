package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wkalt/treeviz/render"
	"github.com/wkalt/treeviz/snapshot"
)

func writeSnapshot(t *testing.T, path string, snap *snapshot.Snapshot) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	data, err := json.Marshal(snap)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func TestOutputFormat(t *testing.T) {
	cases := []struct {
		assertion string
		flag      string
		path      string
		expected  render.Format
		err       bool
	}{
		{"default", "", "", render.FormatSVG, false},
		{"from extension", "", "tree.png", render.FormatPNG, false},
		{"flag wins", "svg", "tree.png", render.FormatSVG, false},
		{"bad flag", "gif", "", "", true},
		{"bad extension", "", "tree.jpeg", "", true},
	}
	for _, c := range cases {
		t.Run(c.assertion, func(t *testing.T) {
			renderFormat = c.flag
			defer func() { renderFormat = "" }()
			format, err := outputFormat(c.path)
			if c.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.expected, format)
		})
	}
}

func TestRenderFiles(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, filepath.Join(dir, "in", "a.json"), snapshot.SingleLeaf(3, 10, 20))
	writeSnapshot(t, filepath.Join(dir, "in", "nested", "b.json"), snapshot.TwoLevel(3, []int64{1}, []int64{5}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "in", "notes.txt"), []byte("ignored"), 0o600))

	renderInput = filepath.Join(dir, "in", "**", "*.json")
	renderOutput = filepath.Join(dir, "out")
	defer func() { renderInput, renderOutput = "", "" }()

	require.NoError(t, renderFiles(context.Background()))
	for _, name := range []string{"a.svg", "b.svg"} {
		data, err := os.ReadFile(filepath.Join(dir, "out", name))
		require.NoError(t, err)
		assert.Contains(t, string(data), "<svg")
	}

	renderInput = filepath.Join(dir, "missing", "*.json")
	require.ErrorContains(t, renderFiles(context.Background()), "no files found")
}

func TestRenderFilesMalformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{"root_node":`), 0o600))
	renderInput = filepath.Join(dir, "*.json")
	renderOutput = filepath.Join(dir, "out")
	defer func() { renderInput, renderOutput = "", "" }()
	err := renderFiles(context.Background())
	require.ErrorIs(t, err, snapshot.ErrMalformed)
}
