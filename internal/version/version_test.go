package version

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShowVersion(t *testing.T) {
	var buf bytes.Buffer
	ShowVersion(&buf)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "SdarotFetcher v"+Version))
	assert.True(t, strings.HasSuffix(out, "\n"))
}
