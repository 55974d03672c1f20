package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRunHashesPipedPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input")
	require.NoError(t, os.WriteFile(path, []byte("admin\n"), 0o600))
	in, err := os.Open(path)
	require.NoError(t, err)
	defer in.Close()

	var out, prompt bytes.Buffer
	require.NoError(t, run(in, &out, &prompt, bcrypt.MinCost))

	hash := strings.TrimSpace(out.String())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("admin")))
	assert.Empty(t, prompt.String())
}

func TestRunRejectsEmptyPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input")
	require.NoError(t, os.WriteFile(path, []byte("\n"), 0o600))
	in, err := os.Open(path)
	require.NoError(t, err)
	defer in.Close()

	var out bytes.Buffer
	assert.Error(t, run(in, &out, &bytes.Buffer{}, bcrypt.MinCost))
	assert.Empty(t, out.String())
}

func swapTerminal(t *testing.T, raw []byte, err error) *int {
	t.Helper()
	origTerminal, origRead := isTerminal, readPassword
	t.Cleanup(func() {
		isTerminal, readPassword = origTerminal, origRead
	})

	calls := 0
	isTerminal = func(int) bool { return true }
	readPassword = func(int) ([]byte, error) {
		calls++
		return raw, err
	}
	return &calls
}

func TestRunReadsPasswordFromTerminal(t *testing.T) {
	calls := swapTerminal(t, []byte("admin"), nil)

	var out, prompt bytes.Buffer
	require.NoError(t, run(os.Stdin, &out, &prompt, bcrypt.MinCost))

	assert.Equal(t, 1, *calls)
	assert.Contains(t, prompt.String(), "Password: ")
	hash := strings.TrimSpace(out.String())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("admin")))
}

func TestRunTerminalReadError(t *testing.T) {
	swapTerminal(t, nil, errors.New("tty closed"))

	var out bytes.Buffer
	assert.Error(t, run(os.Stdin, &out, &bytes.Buffer{}, bcrypt.MinCost))
	assert.Empty(t, out.String())
}

func TestRunRejectsCostOutOfRange(t *testing.T) {
	calls := swapTerminal(t, []byte("admin"), nil)

	var out bytes.Buffer
	for _, cost := range []int{0, bcrypt.MinCost - 1, bcrypt.MaxCost + 1} {
		assert.Error(t, run(os.Stdin, &out, &bytes.Buffer{}, cost), "cost %d", cost)
	}
	assert.Zero(t, *calls)
	assert.Empty(t, out.String())
}
