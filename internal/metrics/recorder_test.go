package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/instadash/internal/generation"
	"github.com/zjrosen/instadash/internal/workflow"
)

type stubGenerator struct {
	html string
	err  error
}

func (g stubGenerator) Generate(context.Context, generation.Request) (string, error) {
	return g.html, g.err
}

func TestWorkflowRecorder_CountsOutcomes(t *testing.T) {
	m := New()
	c := workflow.New(workflow.Config{Recorders: []workflow.Recorder{m.WorkflowRecorder()}})
	c.SetJSON(`{"a":1}`)
	c.SetPrompt("bar chart")

	_, err := c.Run(context.Background(), stubGenerator{html: "<p>ok</p>"})
	require.NoError(t, err)

	_, err = c.Run(context.Background(), stubGenerator{err: &generation.ServiceError{Status: 500, Message: "boom"}})
	require.Error(t, err)

	c.SetJSON("{broken")
	_, err = c.Run(context.Background(), stubGenerator{})
	require.True(t, errors.Is(err, workflow.ErrInvalidJSON))

	require.Equal(t, 1.0, testutil.ToFloat64(m.GenerationsTotal.WithLabelValues(OutcomeSuccess)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.GenerationsTotal.WithLabelValues(OutcomeService)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.GenerationsTotal.WithLabelValues(OutcomeValidation)))
	require.Equal(t, 0.0, testutil.ToFloat64(m.InFlight))
}
