// Package meta_test contains tests for the meta package.
package meta_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rise-and-shine/errwatch/meta"
)

func TestInjectMetaToContext(t *testing.T) {
	tests := []struct {
		name        string
		metaData    map[meta.ContextKey]string
		keyToVerify meta.ContextKey
		valueExpect string
		nilValue    bool
	}{
		{
			name:        "inject single value",
			metaData:    map[meta.ContextKey]string{meta.TraceID: "abc-123"},
			keyToVerify: meta.TraceID,
			valueExpect: "abc-123",
		},
		{
			name: "inject multiple values",
			metaData: map[meta.ContextKey]string{
				meta.TraceID:     "trace-123",
				meta.ActorID:     "user-456",
				meta.ServiceName: "billing",
			},
			keyToVerify: meta.ActorID,
			valueExpect: "user-456",
		},
		{
			name: "skip empty values",
			metaData: map[meta.ContextKey]string{
				meta.TraceID: "trace-123",
				meta.ActorID: "",
			},
			keyToVerify: meta.ActorID,
			nilValue:    true,
		},
		{
			name:        "empty map",
			metaData:    map[meta.ContextKey]string{},
			keyToVerify: meta.TraceID,
			nilValue:    true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := meta.InjectMetaToContext(t.Context(), tc.metaData)

			if tc.nilValue {
				assert.Nil(t, ctx.Value(tc.keyToVerify))
				return
			}
			assert.Equal(t, tc.valueExpect, ctx.Value(tc.keyToVerify))
		})
	}
}

func TestExtractMetaFromContext(t *testing.T) {
	tests := []struct {
		name     string
		ctxSetup func() context.Context
		expected map[meta.ContextKey]string
	}{
		{
			name: "extract values",
			ctxSetup: func() context.Context {
				ctx := context.WithValue(t.Context(), meta.TraceID, "trace-123")
				return context.WithValue(ctx, meta.ServiceName, "billing")
			},
			expected: map[meta.ContextKey]string{
				meta.TraceID:     "trace-123",
				meta.ServiceName: "billing",
			},
		},
		{
			name: "ignore non-string values",
			ctxSetup: func() context.Context {
				return context.WithValue(t.Context(), meta.TraceID, 12345)
			},
			expected: map[meta.ContextKey]string{},
		},
		{
			name: "ignore keys outside the predefined list",
			ctxSetup: func() context.Context {
				return context.WithValue(t.Context(), meta.ContextKey("custom_key"), "custom_value")
			},
			expected: map[meta.ContextKey]string{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, meta.ExtractMetaFromContext(tc.ctxSetup()))
		})
	}
}

func TestServiceInfo(t *testing.T) {
	meta.SetServiceInfo("errwatchd", "1.2.3")
	meta.SetServiceInfo("ignored", "0.0.0")

	assert.Equal(t, meta.ServiceInfo{Name: "errwatchd", Version: "1.2.3"}, meta.Service())
}
