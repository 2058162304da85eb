package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequentialIDs(t *testing.T) {
	ids := NewSequentialIDs("block")
	assert.Equal(t, "block-0001", ids.Generate())
	assert.Equal(t, "block-0002", ids.Generate())
}

func TestSequentialIDs_DefaultPrefix(t *testing.T) {
	assert.Equal(t, "session-0001", NewSequentialIDs("").Generate())
}
