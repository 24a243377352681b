package rag

// Step statuses reported to observers and in step reports.
const (
	StepOK       = "ok"
	StepDegraded = "degraded"
	StepFatal    = "fatal"
)

// Observer receives counters from the retrieval core. Metrics backends implement it.
type Observer interface {
	ToolCall(tool, status string, attempts int)
	Retry(tool string)
	Turn(intent IntentKind, outcome string, accepted int)
	StreamEvent(eventType string)
}

// NopObserver discards everything.
type NopObserver struct{}

func (NopObserver) ToolCall(string, string, int) {}
func (NopObserver) Retry(string)                 {}
func (NopObserver) Turn(IntentKind, string, int) {}
func (NopObserver) StreamEvent(string)           {}
