package mailmerge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	td "github.com/benjaminschreck/go-mailmerge/internal/testdocx"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    zapcore.Level
		enabled bool
		wantErr bool
	}{
		{"debug", zapcore.DebugLevel, true, false},
		{"", zapcore.InfoLevel, true, false},
		{"INFO", zapcore.InfoLevel, true, false},
		{"warning", zapcore.WarnLevel, true, false},
		{"error", zapcore.ErrorLevel, true, false},
		{"off", zapcore.InfoLevel, false, false},
		{"verbose", zapcore.InfoLevel, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, enabled, err := ParseLogLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, level)
			assert.Equal(t, tt.enabled, enabled)
		})
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	off, err := NewLogger("off")
	require.NoError(t, err)
	assert.False(t, off.Core().Enabled(zapcore.ErrorLevel))

	_, err = NewLogger("verbose")
	assert.Error(t, err)
}

func TestSetLogger(t *testing.T) {
	original := GetLogger()
	t.Cleanup(func() { SetLogger(original) })

	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))

	doc, err := OpenBytes(td.Sample())
	require.NoError(t, err)
	require.NoError(t, doc.MergeField("MergeMe", "x"))
	require.NoError(t, doc.Close())

	assert.NotZero(t, logs.FilterMessage("opened document").Len())
	merged := logs.FilterMessage("merged field").All()
	require.Len(t, merged, 1)
	assert.Equal(t, "MergeMe", merged[0].ContextMap()["key"])

	SetLogger(nil)
	assert.NotNil(t, GetLogger())
}

func TestWithLogger_SkippedRegionWarns(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	doc := openBody(t, td.Paragraph(td.Run("no tables")), WithLogger(zap.New(core)))

	require.NoError(t, doc.MergeTable(&Table{Name: "Items"}))
	entries := logs.FilterMessage("skipping table region").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Items", entries[0].ContextMap()["table"])
}
