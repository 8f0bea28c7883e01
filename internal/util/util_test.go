package util

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSeriesNamePrefersArgs(t *testing.T) {
	name, err := ResolveSeriesName([]string{"The", "Arbitrator"}, "Other")
	require.NoError(t, err)
	assert.Equal(t, "The Arbitrator", name)
}

func TestResolveSeriesNameFallsBackToConfig(t *testing.T) {
	name, err := ResolveSeriesName(nil, "  Shtisel ")
	require.NoError(t, err)
	assert.Equal(t, "Shtisel", name)
}

func TestGetSimpleInput(t *testing.T) {
	name, err := getSimpleInput("name", strings.NewReader("Fauda\n"))
	require.NoError(t, err)
	assert.Equal(t, "Fauda", name)

	_, err = getSimpleInput("name", strings.NewReader("   \n"))
	assert.Error(t, err)
}

func TestErrorHandler(t *testing.T) {
	defer SetDebugMode(false)

	SetDebugMode(false)
	out := ErrorHandler(errors.New("boom"))
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "--debug")

	SetDebugMode(true)
	out = ErrorHandler(errors.New("boom"))
	assert.Contains(t, out, "DEBUG ERROR")
	assert.Contains(t, out, "boom")
}
