package analyses

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	"docreader-backend/internal/shared/metrics"
	"docreader-backend/internal/shared/telemetry"
)

const (
	defaultPageSize = 1
	maxPageSize     = 1000
)

// StatusChecker queries Textract for job status and maps the response to a Result.
type StatusChecker struct {
	API      TextractAPI
	PageSize int32
}

// Check performs one status query. Transport errors and unknown statuses come
// back as ERROR results, never as Go errors.
func (s *StatusChecker) Check(ctx context.Context, jobID string) Result {
	return s.Page(ctx, jobID, "", s.PageSize)
}

// Page is Check with an explicit continuation token and page size.
func (s *StatusChecker) Page(ctx context.Context, jobID, nextToken string, maxResults int32) Result {
	if maxResults <= 0 {
		maxResults = defaultPageSize
	}
	if maxResults > maxPageSize {
		maxResults = maxPageSize
	}
	in := &textract.GetDocumentAnalysisInput{
		JobId:      aws.String(jobID),
		MaxResults: aws.Int32(maxResults),
	}
	if nextToken != "" {
		in.NextToken = aws.String(nextToken)
	}

	metrics.IncJobPolls()
	out, err := s.API.GetDocumentAnalysis(ctx, in)
	if err != nil {
		telemetry.Warn("textract.status_failed", map[string]any{
			"request_id": requestIDFromContext(ctx),
			"job_id":     jobID,
			"error":      err,
		})
		return Result{JobID: jobID, State: StateError, Message: fmt.Sprintf("Error checking job status: %v", err)}
	}
	return mapStatus(jobID, out)
}

func mapStatus(jobID string, out *textract.GetDocumentAnalysisOutput) Result {
	res := Result{JobID: jobID, NextToken: aws.ToString(out.NextToken)}
	switch out.JobStatus {
	case types.JobStatusSucceeded:
		res.State = StateSucceeded
		res.Blocks = out.Blocks
	case types.JobStatusFailed:
		res.State = StateFailed
		res.Message = "Job failed: " + describeFailure(out)
		res.NextToken = ""
	case types.JobStatusPartialSuccess:
		res.State = StatePartialSuccess
		res.Blocks = out.Blocks
		res.Message = "Job completed with partial success: " + describeWarnings(out)
	case types.JobStatusInProgress:
		res.State = StateInProgress
		res.NextToken = ""
	default:
		res.State = StateError
		res.Message = fmt.Sprintf("Unexpected job status: %s", out.JobStatus)
		res.NextToken = ""
	}
	return res
}

func describeFailure(out *textract.GetDocumentAnalysisOutput) string {
	var parts []string
	if msg := aws.ToString(out.StatusMessage); msg != "" {
		parts = append(parts, msg)
	}
	if id := requestIDOf(out.ResultMetadata); id != "" {
		parts = append(parts, "request id "+id)
	}
	if status := httpStatusOf(out.ResultMetadata); status != 0 {
		parts = append(parts, fmt.Sprintf("http status %d", status))
	}
	if len(parts) == 0 {
		return "no status message"
	}
	return strings.Join(parts, "; ")
}

func describeWarnings(out *textract.GetDocumentAnalysisOutput) string {
	var parts []string
	for _, w := range out.Warnings {
		code := aws.ToString(w.ErrorCode)
		if code == "" {
			code = "warning"
		}
		if len(w.Pages) > 0 {
			parts = append(parts, fmt.Sprintf("%s on pages %v", code, w.Pages))
		} else {
			parts = append(parts, code)
		}
	}
	if msg := aws.ToString(out.StatusMessage); msg != "" {
		parts = append(parts, msg)
	}
	if id := requestIDOf(out.ResultMetadata); id != "" {
		parts = append(parts, "request id "+id)
	}
	if len(parts) == 0 {
		return "no warnings reported"
	}
	return strings.Join(parts, "; ")
}
