package metrics

import "github.com/zjrosen/instadash/internal/workflow"

// WorkflowRecorder feeds workflow attempts into m.
func (m *Metrics) WorkflowRecorder() workflow.Recorder {
	return recorder{m: m}
}

type recorder struct {
	m *Metrics
}

func (r recorder) AttemptStarted(workflow.Attempt) {
	r.m.SetInFlight(true)
}

func (r recorder) AttemptFinished(a workflow.Attempt) {
	r.m.SetInFlight(false)
	r.m.ObserveGeneration(a.Outcome, a.Elapsed(), a.HTMLBytes)
}
