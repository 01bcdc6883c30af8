package analyses

import "github.com/aws/aws-sdk-go-v2/service/textract/types"

// State is the last observed status of an analysis job. The zero value means
// no status has been observed yet.
type State string

const (
	StateInProgress     State = "IN_PROGRESS"
	StateSucceeded      State = "SUCCEEDED"
	StateFailed         State = "FAILED"
	StatePartialSuccess State = "PARTIAL_SUCCESS"
	StateError          State = "ERROR"
)

// Terminal reports whether no further status change is expected.
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StatePartialSuccess, StateError:
		return true
	}
	return false
}

// Result is one observation of a job. Blocks are set for SUCCEEDED and
// PARTIAL_SUCCESS; Message for FAILED, PARTIAL_SUCCESS and ERROR.
type Result struct {
	JobID     string        `json:"jobId"`
	State     State         `json:"status"`
	Blocks    []types.Block `json:"blocks,omitempty"`
	Message   string        `json:"message,omitempty"`
	NextToken string        `json:"nextToken,omitempty"`
}

// StartResult is the tagged outcome of starting an analysis job.
type StartResult struct {
	Success bool   `json:"success"`
	JobID   string `json:"jobId,omitempty"`
	Error   string `json:"error,omitempty"`
}
