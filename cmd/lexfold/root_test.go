package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/lexfold/internal/language"
)

// workspace holds a config file pointing at a definitions directory.
type workspace struct {
	dir    string
	config string
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	dir := t.TempDir()
	defs := filepath.Join(dir, "languages")
	require.NoError(t, os.Mkdir(defs, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(defs, "toy.yaml"),
		[]byte("name: toy\nextensions: [.toy]\nline_comments: [\"--\"]\n"), 0o644))

	cfg := filepath.Join(dir, "config.toml")
	data := "[logging]\nlevel = \"error\"\n\n[languages]\ndefinitions_dir = \"" + filepath.ToSlash(defs) + "\"\n"
	require.NoError(t, os.WriteFile(cfg, []byte(data), 0o644))
	return &workspace{dir: dir, config: cfg}
}

func (w *workspace) file(t *testing.T, name, text string) string {
	t.Helper()
	path := filepath.Join(w.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

const goSource = "package a\n\nfunc f() {\n\tx()\n}\n"

func TestLangs(t *testing.T) {
	w := newWorkspace(t)
	out, err := run(t, "langs", "-c", w.config)
	require.NoError(t, err)
	assert.Contains(t, out, "go           .go")
	assert.Contains(t, out, "toy          .toy")
	assert.Contains(t, out, "python")
}

func TestTokens(t *testing.T) {
	w := newWorkspace(t)
	path := w.file(t, "main.go", goSource)

	out, err := run(t, "tokens", "-c", w.config, path)
	require.NoError(t, err)
	assert.Contains(t, out, `0-7 reserved-word "package"`)
	assert.Contains(t, out, `8-9 identifier "a"`)

	out, err = run(t, "tokens", "-c", w.config, "--states", path)
	require.NoError(t, err)
	assert.Contains(t, out, "1 [")
}

func TestTokensUserLanguage(t *testing.T) {
	w := newWorkspace(t)
	path := w.file(t, "x.toy", "a -- note")

	out, err := run(t, "tokens", "-c", w.config, path)
	require.NoError(t, err)
	assert.Contains(t, out, `2-9 comment-eol "-- note"`)
}

func TestFolds(t *testing.T) {
	w := newWorkspace(t)
	path := w.file(t, "main.go", goSource)

	out, err := run(t, "folds", "-c", w.config, path)
	require.NoError(t, err)
	assert.Equal(t, "code lines 3-5 [20,28)\n", out)
}

func TestView(t *testing.T) {
	w := newWorkspace(t)
	path := w.file(t, "main.go", goSource)

	out, err := run(t, "view", "-c", w.config, "--collapse", "code", path)
	require.NoError(t, err)
	assert.Contains(t, out, "   3  func f() { ... (2 lines)\n")
	assert.NotContains(t, out, "x()")
	assert.Contains(t, out, "-- 4 of 6 lines visible")

	_, err = run(t, "view", "-c", w.config, "--collapse", "nonsense", path)
	assert.Error(t, err)
}

func TestLangOverride(t *testing.T) {
	w := newWorkspace(t)
	path := w.file(t, "script", "def f():\n    pass\n")

	_, err := run(t, "folds", "-c", w.config, path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, language.ErrUnknownLanguage))

	out, err := run(t, "folds", "-c", w.config, "--lang", "python", path)
	require.NoError(t, err)
	assert.Equal(t, "code lines 1-2 [0,17)\n", out)
}

func TestSetupErrors(t *testing.T) {
	w := newWorkspace(t)
	path := w.file(t, "main.go", goSource)

	_, err := run(t, "tokens", "-c", w.config, "--log-level", "loud", path)
	assert.Error(t, err)

	bad := w.file(t, "bad.toml", "[folding\n")
	_, err = run(t, "tokens", "-c", bad, path)
	assert.Error(t, err)

	_, err = run(t, "tokens", "-c", w.config, filepath.Join(w.dir, "missing.go"))
	assert.Error(t, err)
}
