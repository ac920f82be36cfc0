package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

// execute runs the root command with fresh flag state and captured streams.
func execute(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	silent, verbose, rulesFile, debug = false, false, "", false

	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))

	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)

	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestRootCmd(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	t.Run("stdin_to_stdout", func(t *testing.T) {
		stdout, _, err := execute(t, "foo and some\n", "foo", "bar", "some", "other")
		require.NoError(t, err, "executing")
		assert.Equal(t, "bar and other\n", stdout)
	})

	t.Run("longest_match_wins", func(t *testing.T) {
		stdout, _, err := execute(t, "abc\n", "a", "Y", "ab", "X")
		require.NoError(t, err, "executing")
		assert.Equal(t, "Xc\n", stdout)
	})

	t.Run("odd_pair_count_fails", func(t *testing.T) {
		_, _, err := execute(t, "", "foo", "bar", "dangling")
		require.Error(t, err, "odd pair count must fail")
		assert.False(t, errors.Is(err, errProcessing), "argument errors are not processing errors")
	})

	t.Run("rewrites_files_after_dash", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "a.txt")
		require.NoError(t, os.WriteFile(path, []byte("foo here\n"), 0644), "writing fixture")

		_, _, err := execute(t, "", "foo", "bar", "--", path)
		require.NoError(t, err, "executing")

		got, readErr := os.ReadFile(path)
		require.NoError(t, readErr, "reading rewritten file")
		assert.Equal(t, "bar here\n", string(got))
	})

	t.Run("missing_file_is_a_processing_failure", func(t *testing.T) {
		dir := t.TempDir()
		good := filepath.Join(dir, "good.txt")
		require.NoError(t, os.WriteFile(good, []byte("foo\n"), 0644), "writing fixture")
		missing := filepath.Join(dir, "missing.txt")

		_, stderr, err := execute(t, "", "foo", "bar", "--", good, missing)
		require.Error(t, err, "run with a failed file must error")
		assert.True(t, errors.Is(err, errProcessing), "failed files exit with the processing status")
		assert.Contains(t, stderr, "missing.txt", "failure must be reported")

		got, readErr := os.ReadFile(good)
		require.NoError(t, readErr, "reading rewritten file")
		assert.Equal(t, "bar\n", string(got), "good file must still be converted")
	})

	t.Run("verbose_prints_pairs_to_stderr", func(t *testing.T) {
		stdout, stderr, err := execute(t, "foo\n", "-v", "foo", "bar")
		require.NoError(t, err, "executing")
		assert.Equal(t, "bar\n", stdout, "stdout stays clean")
		assert.Contains(t, stderr, "Replacement pairs:")
		assert.Contains(t, stderr, "'foo' -> 'bar'")
	})

	t.Run("rules_file_drives_file_rewrites", func(t *testing.T) {
		dir := t.TempDir()
		rules := filepath.Join(dir, "rules.yaml")
		require.NoError(t, os.WriteFile(rules, []byte("replacements:\n  - from: foo\n    to: bar\n"), 0644), "writing rules")
		target := filepath.Join(dir, "a.txt")
		require.NoError(t, os.WriteFile(target, []byte("foo\n"), 0644), "writing fixture")

		_, _, err := execute(t, "", "-r", rules, target)
		require.NoError(t, err, "executing")

		got, readErr := os.ReadFile(target)
		require.NoError(t, readErr, "reading rewritten file")
		assert.Equal(t, "bar\n", string(got))
	})

	t.Run("version_flag", func(t *testing.T) {
		stdout, _, err := execute(t, "", "--version")
		require.NoError(t, err, "executing")
		assert.Contains(t, stdout, "subst version info:")
	})
}
