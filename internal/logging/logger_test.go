package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWriterAdapterLogsAtErrorLevel(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	prevLogger, prevSugar := logger, sugar
	logger = zap.New(core)
	sugar = logger.Sugar()
	t.Cleanup(func() {
		logger, sugar = prevLogger, prevSugar
	})

	w := NewWriterAdapter()
	line := []byte("http: TLS handshake error from 10.0.0.1\n")
	n, err := w.Write(line)
	require.NoError(t, err)
	assert.Equal(t, len(line), n)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "http: TLS handshake error from 10.0.0.1", entries[0].Message)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
}
