package analyses

import (
	"context"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"github.com/aws/smithy-go/middleware"
)

type fakeTextract struct {
	mu       sync.Mutex
	startIn  *textract.StartDocumentAnalysisInput
	startOut *textract.StartDocumentAnalysisOutput
	startErr error
	getIns   []*textract.GetDocumentAnalysisInput
	getFn    func(ctx context.Context, call int) (*textract.GetDocumentAnalysisOutput, error)
}

func (f *fakeTextract) StartDocumentAnalysis(ctx context.Context, in *textract.StartDocumentAnalysisInput, _ ...func(*textract.Options)) (*textract.StartDocumentAnalysisOutput, error) {
	f.mu.Lock()
	f.startIn = in
	f.mu.Unlock()
	if f.startErr != nil {
		return nil, f.startErr
	}
	return f.startOut, nil
}

func (f *fakeTextract) GetDocumentAnalysis(ctx context.Context, in *textract.GetDocumentAnalysisInput, _ ...func(*textract.Options)) (*textract.GetDocumentAnalysisOutput, error) {
	f.mu.Lock()
	f.getIns = append(f.getIns, in)
	call := len(f.getIns)
	f.mu.Unlock()
	return f.getFn(ctx, call)
}

func (f *fakeTextract) getCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.getIns)
}

// sequence answers successive status queries with the given statuses; the last repeats.
func sequence(statuses ...types.JobStatus) func(context.Context, int) (*textract.GetDocumentAnalysisOutput, error) {
	return func(_ context.Context, call int) (*textract.GetDocumentAnalysisOutput, error) {
		idx := call - 1
		if idx >= len(statuses) {
			idx = len(statuses) - 1
		}
		out := &textract.GetDocumentAnalysisOutput{JobStatus: statuses[idx]}
		if statuses[idx] == types.JobStatusSucceeded {
			out.Blocks = []types.Block{{BlockType: types.BlockTypePage, Id: aws.String("b1")}}
		}
		return out, nil
	}
}

func stubMetadata(t *testing.T, status int, requestID string) {
	t.Helper()
	origStatus, origID := httpStatusOf, requestIDOf
	t.Cleanup(func() {
		httpStatusOf = origStatus
		requestIDOf = origID
	})
	httpStatusOf = func(middleware.Metadata) int { return status }
	requestIDOf = func(middleware.Metadata) string { return requestID }
}

type recorder struct {
	mu     sync.Mutex
	states []Result
}

func (r *recorder) emit(res Result) {
	r.mu.Lock()
	r.states = append(r.states, res)
	r.mu.Unlock()
}

func (r *recorder) seen() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]State, 0, len(r.states))
	for _, s := range r.states {
		out = append(out, s.State)
	}
	return out
}
