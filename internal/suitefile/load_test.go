package suitefile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func str(s string) *string { return &s }

func TestLoad_YAML(t *testing.T) {
	s, err := Load("testdata/lifecycle.yaml")
	require.NoError(t, err)

	assert.Equal(t, "root", s.Name)
	require.Len(t, s.Tests, 2)
	assert.Equal(t, ExpectFailed, s.Tests[1].Expect)
	assert.Equal(t, []Step{{Mark: str("t2")}, {Fail: str("t2 is expected to fail")}}, s.Tests[1].Steps)
	require.Len(t, s.Scopes, 1)
	assert.Equal(t, "child", s.Scopes[0].Name)
	assert.Len(t, s.Trace, 13)
	assert.Equal(t, 3, s.CountTests())
}

func TestLoad_CUEMatchesYAML(t *testing.T) {
	fromYAML, err := Load("testdata/lifecycle.yaml")
	require.NoError(t, err)
	fromCUE, err := Load("testdata/lifecycle.cue")
	require.NoError(t, err)

	assert.Equal(t, fromYAML, fromCUE)
}

func TestLoad_UnknownFieldsRejected(t *testing.T) {
	_, err := Load("testdata/unknown_field.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stepz")

	_, err = Load("testdata/unknown_field.cue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "suite does not match schema")
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "nope.yaml"))
		assert.ErrorContains(t, err, "failed to read suite file")
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(dir, "suite.json")
		require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))
		_, err := Load(path)
		assert.ErrorContains(t, err, `unsupported suite file extension ".json"`)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := ParseYAML([]byte("name: [unclosed"))
		assert.ErrorContains(t, err, "failed to parse YAML")
	})

	t.Run("malformed cue", func(t *testing.T) {
		_, err := ParseCUE([]byte(`name: "x`), "bad.cue")
		assert.ErrorContains(t, err, "failed to parse CUE")
	})

	t.Run("cue outcome outside enum", func(t *testing.T) {
		_, err := ParseCUE([]byte(`name: "x", tests: [{name: "t", expect: "flaky"}]`), "bad.cue")
		assert.ErrorContains(t, err, "suite does not match schema")
	})

	t.Run("invalid yaml suite", func(t *testing.T) {
		_, err := ParseYAML([]byte("tests:\n  - name: t\n"))
		assert.ErrorContains(t, err, "invalid suite: name is required")
	})
}
