package pipeline

import "fmt"

// Observer receives run notifications synchronously, in order. A non-nil
// return aborts the run; delivery is never retried.
type Observer interface {
	StageStarted(stage Stage) error
	StageProgress(stage Stage, fraction float64) error
	StageCompleted(stage Stage) error
	StageFailed(stage Stage, err error) error
	PipelineCompleted(result *Result) error
	PipelineFailed(err error) error
}

// EventKind tags an Event.
type EventKind string

// Event kinds.
const (
	EventStageStarted      EventKind = "stage_started"
	EventStageProgress     EventKind = "stage_progress"
	EventStageCompleted    EventKind = "stage_completed"
	EventStageFailed       EventKind = "stage_failed"
	EventPipelineCompleted EventKind = "pipeline_completed"
	EventPipelineFailed    EventKind = "pipeline_failed"
)

// Event is the tagged form of an Observer call.
type Event struct {
	Kind     EventKind `json:"kind"`
	Stage    Stage     `json:"stage,omitempty"`
	Progress float64   `json:"progress,omitempty"`
	Error    string    `json:"error,omitempty"`
	Result   *Result   `json:"result,omitempty"`
}

func (e Event) String() string {
	switch e.Kind {
	case EventStageProgress:
		return fmt.Sprintf("%s %s %.0f%%", e.Kind, e.Stage, e.Progress*100)
	case EventStageFailed:
		return fmt.Sprintf("%s %s: %s", e.Kind, e.Stage, e.Error)
	case EventPipelineFailed:
		return fmt.Sprintf("%s: %s", e.Kind, e.Error)
	case EventPipelineCompleted:
		if e.Result != nil {
			return fmt.Sprintf("%s %s", e.Kind, e.Result.OutputPath)
		}
		return string(e.Kind)
	default:
		return fmt.Sprintf("%s %s", e.Kind, e.Stage)
	}
}

// Compile-time interface implementation checks.
var (
	_ Observer = FuncObserver(nil)
	_ Observer = NopObserver{}
)

// FuncObserver adapts a function taking tagged events to Observer.
type FuncObserver func(Event) error

// StageStarted implements Observer.
func (f FuncObserver) StageStarted(stage Stage) error {
	return f(Event{Kind: EventStageStarted, Stage: stage})
}

// StageProgress implements Observer.
func (f FuncObserver) StageProgress(stage Stage, fraction float64) error {
	return f(Event{Kind: EventStageProgress, Stage: stage, Progress: fraction})
}

// StageCompleted implements Observer.
func (f FuncObserver) StageCompleted(stage Stage) error {
	return f(Event{Kind: EventStageCompleted, Stage: stage})
}

// StageFailed implements Observer.
func (f FuncObserver) StageFailed(stage Stage, err error) error {
	return f(Event{Kind: EventStageFailed, Stage: stage, Error: err.Error()})
}

// PipelineCompleted implements Observer.
func (f FuncObserver) PipelineCompleted(result *Result) error {
	return f(Event{Kind: EventPipelineCompleted, Result: result})
}

// PipelineFailed implements Observer.
func (f FuncObserver) PipelineFailed(err error) error {
	return f(Event{Kind: EventPipelineFailed, Error: err.Error()})
}

// ChannelObserver sends every event on ch. Closing done tells the run the
// receiver has gone; the next send then fails with ErrObserverClosed.
func ChannelObserver(ch chan<- Event, done <-chan struct{}) FuncObserver {
	return func(e Event) error {
		select {
		case <-done:
			return ErrObserverClosed
		default:
		}
		select {
		case ch <- e:
			return nil
		case <-done:
			return ErrObserverClosed
		}
	}
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) StageStarted(Stage) error           { return nil }
func (NopObserver) StageProgress(Stage, float64) error { return nil }
func (NopObserver) StageCompleted(Stage) error         { return nil }
func (NopObserver) StageFailed(Stage, error) error     { return nil }
func (NopObserver) PipelineCompleted(*Result) error    { return nil }
func (NopObserver) PipelineFailed(error) error         { return nil }
