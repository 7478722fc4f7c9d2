package pool

import "github.com/Sternrassler/catalog-probe/pkg/catalog"

// eventKind identifies a worker-to-coordinator message.
type eventKind int

const (
	// eventResults carries the results of one batch.
	eventResults eventKind = iota

	// eventExit is the last message a worker sends.
	eventExit

	// eventFailure reports a panic before the batch was reported.
	eventFailure
)

// String implements fmt.Stringer.
func (k eventKind) String() string {
	switch k {
	case eventResults:
		return "results"
	case eventExit:
		return "exit"
	case eventFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// workerEvent is a message from a worker to the coordinator. Batches travel
// the other way over the worker's inbox; closing the inbox is the shutdown
// signal.
type workerEvent struct {
	kind     eventKind
	workerID string
	results  []catalog.Result
	err      error
}
