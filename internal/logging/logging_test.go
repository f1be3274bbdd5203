package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_KeyValues(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := FromZap(zap.New(core)).With("component", "test")

	l.Info("directory created", "slug", "coffee-shops")
	l.Error("generation failed", "error", "boom")

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "directory created", entries[0].Message)
		assert.Equal(t, "coffee-shops", entries[0].ContextMap()["slug"])
		assert.Equal(t, "test", entries[0].ContextMap()["component"])
		assert.Equal(t, zap.ErrorLevel, entries[1].Level)
	}
}

func TestNewLogger_UnknownLevelFallsBack(t *testing.T) {
	l := NewLogger(false, "not-a-level")
	assert.NotNil(t, l)
	l.Debug("dropped at info level")
}
