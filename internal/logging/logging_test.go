package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuildsDevelopmentLogger(t *testing.T) {
	log, err := New(Config{Development: true, Level: "debug"})
	require.NoError(t, err)
	require.NotNil(t, log)
	defer log.Sync()
}

func TestNewFallsBackToInfoOnBadLevel(t *testing.T) {
	log, err := New(Config{Level: "not-a-level"})
	require.NoError(t, err)
	assert.NotNil(t, log)
	defer log.Sync()
}
