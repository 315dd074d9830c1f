package logger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/code19m/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rise-and-shine/errwatch/meta"
	"github.com/rise-and-shine/errwatch/observability/logger"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     logger.Config
		wantErr bool
	}{
		{name: "json", cfg: logger.Config{Level: "info", Encoding: "json"}},
		{name: "pretty", cfg: logger.Config{Level: "debug", Encoding: "pretty"}},
		{name: "disabled", cfg: logger.Config{Disable: true}},
		{name: "invalid level", cfg: logger.Config{Level: "loud", Encoding: "json"}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l, err := logger.New(tc.cfg)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestErrorx(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := logger.FromZap(zap.New(core))

	l.Errorx(errx.New("db is down", errx.WithCode("DB_DOWN")))
	l.Warnx(errors.New("plain"))
	l.Errorx(nil)

	entries := logs.All()
	require.Len(t, entries, 2)

	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "DB_DOWN", entries[0].ContextMap()["error_code"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "plain", entries[1].Message)
}

func TestWithContext(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := logger.FromZap(zap.New(core)).Named("test")

	ctx := meta.InjectMetaToContext(context.Background(), map[meta.ContextKey]string{
		meta.TraceID: "trace-1",
	})

	l.WithContext(ctx).Info("hello")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "test", entries[0].LoggerName)
	assert.Equal(t, "trace-1", entries[0].ContextMap()["trace_id"])
}
