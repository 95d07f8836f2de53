package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetMetrics(t *testing.T) {
	m := GetMetrics()
	require.NotNil(t, m)
	require.Same(t, m, GetMetrics())

	require.NotNil(t, m.AssembleTotal)
	require.NotNil(t, m.ExternalsDecisions)
	require.NotNil(t, m.BuildDuration)

	// the global no-op provider accepts recordings before Init
	m.AssembleTotal.Add(context.Background(), 1)
	m.BuildDuration.Record(context.Background(), 12.5)
}

func TestTracer(t *testing.T) {
	_, span := Tracer().Start(context.Background(), "test")
	defer span.End()
	require.NotNil(t, span)
}
