package utility

import (
	"sync"

	"github.com/google/uuid"
)

// ExecutionID identifies one simulation run. Every event produced by the run
// carries it, which lets sinks correlate events across a parameter sweep.
type ExecutionID = uuid.UUID

var (
	executionID     ExecutionID
	executionIDOnce sync.Once
	executionIDMu   sync.RWMutex
)

func GetExecutionID() ExecutionID {
	executionIDOnce.Do(func() {
		executionID = uuid.Must(uuid.NewV7())
	})

	executionIDMu.RLock()
	defer executionIDMu.RUnlock()
	return executionID
}

// NewExecutionID mints an independent id, used by sweep runs which must not
// share the process-wide one.
func NewExecutionID() ExecutionID {
	return uuid.Must(uuid.NewV7())
}

func ResetExecutionID() ExecutionID {
	executionIDMu.Lock()
	defer executionIDMu.Unlock()

	executionID = uuid.Must(uuid.NewV7())
	return executionID
}
