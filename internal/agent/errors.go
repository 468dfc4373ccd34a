package agent

import (
	"errors"
	"fmt"
)

// ErrToolRoundsExceeded indicates the model kept requesting tools past the
// configured round cap. The cap bounds pathological tool-call loops.
var ErrToolRoundsExceeded = errors.New("tool round limit exceeded")

// ExecutionError reports an unrecoverable turn failure: the model backend
// call failed (network, auth, quota) or the round cap was hit. Tool
// failures never produce one — they go back to the model as tool results.
type ExecutionError struct {
	// Round is the model round that failed, starting at 0.
	Round int
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("agent execution failed at round %d: %v", e.Round, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
