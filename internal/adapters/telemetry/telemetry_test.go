package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lockship/internal/adapters/telemetry"
	"go.trai.ch/lockship/internal/core/ports"
)

func TestOTelTracer_WithRenderer(t *testing.T) {
	mock := &mockRenderer{}
	tracer := telemetry.NewOTelTracer("test-tracer").WithRenderer(mock)

	tracer.EmitPlan(context.Background(), []string{"w1"})

	mock.mu.Lock()
	defer mock.mu.Unlock()
	assert.Equal(t, 1, mock.planCalls)
}

func TestOTelTracer_WithOutput(t *testing.T) {
	mock := &mockRenderer{}
	out := telemetry.NewWorkerOutput(mock, 0)
	tracer := telemetry.NewOTelTracer("test").WithOutput(out)

	_, span := tracer.Start(context.Background(), "Installing on w1", ports.WithWorker("w1"))
	n, err := span.Write([]byte("already applied\n"))
	require.NoError(t, err)
	assert.Equal(t, 16, n)
	span.End()
	assert.Zero(t, mock.logCalls, "without a bridge the output stays buffered")

	require.NoError(t, tracer.Shutdown(context.Background()))
	mock.mu.Lock()
	defer mock.mu.Unlock()
	require.Len(t, mock.logs, 1)
	assert.Equal(t, "already applied\n", string(mock.logs[0]))
}

func TestOTelSpan_Attributes(_ *testing.T) {
	tracer := telemetry.NewOTelTracer("test")
	_, span := tracer.Start(context.Background(), "test")

	span.SetAttribute("string", "val")
	span.SetAttribute("int", 123)
	span.SetAttribute("int64", int64(123))
	span.SetAttribute("float64", 12.34)
	span.SetAttribute("bool", true)
	span.SetAttribute("slice", []string{"a", "b"})
	span.SetAttribute("other", complex(1, 1))

	span.End()
}

func TestTracer_NoRenderer(t *testing.T) {
	tracer := telemetry.NewOTelTracer("test")
	ctx := context.Background()

	tracer.EmitPlan(ctx, []string{"w1"})

	_, span := tracer.Start(ctx, "Installing on w1")

	n, err := span.Write([]byte("log"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	span.End()
}

func TestOTelTracer_Shutdown(t *testing.T) {
	tracer := telemetry.NewOTelTracer("test")
	ctx := context.Background()

	err := tracer.Shutdown(ctx)
	require.NoError(t, err)
}

func TestOTelSpan_RecordError(_ *testing.T) {
	tracer := telemetry.NewOTelTracer("test")
	ctx := context.Background()

	_, span := tracer.Start(ctx, "Restarting w1")
	testErr := errors.New("test error")
	span.RecordError(testErr)
	span.End()
}
