package logger

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestVerboseRaisesLevel(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithConfig(&buf, "test", log.InfoLevel, false, false, log.TextFormatter)

	quiet := Verbose(base, false)
	assert.Same(t, base, quiet)
	quiet.Debug("hidden")
	assert.Empty(t, buf.String())

	loud := Verbose(base, true)
	loud.Debug("shown")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "test")
	assert.Equal(t, log.InfoLevel, base.GetLevel())
}

func TestVerboseNilLogger(t *testing.T) {
	assert.NotNil(t, Verbose(nil, false))
	assert.Equal(t, log.DebugLevel, Verbose(nil, true).GetLevel())
}
