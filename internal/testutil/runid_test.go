package testutil

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedRunID(t *testing.T) {
	assert.Equal(t, "run-abc", FixedRunID("run-abc").Generate())
	assert.Equal(t, "run-abc", FixedRunID("run-abc").Generate())
	assert.Equal(t, "test-run-default", FixedRunID("").Generate())
}

func TestSequentialRunIDs(t *testing.T) {
	gen := NewSequentialRunIDs("suite")
	assert.Equal(t, "suite-0001", gen.Generate())
	assert.Equal(t, "suite-0002", gen.Generate())

	assert.Equal(t, "run-0001", NewSequentialRunIDs("").Generate())
}

func TestLoggers(t *testing.T) {
	DiscardLogger().Info("dropped")

	var buf bytes.Buffer
	BufferLogger(&buf).Debug("kept", "k", "v")
	assert.Contains(t, buf.String(), "msg=kept")
	assert.Contains(t, buf.String(), "k=v")
}
