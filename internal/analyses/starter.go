package analyses

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	"docreader-backend/internal/shared/metrics"
	"docreader-backend/internal/shared/telemetry"
)

// Starter starts asynchronous Textract analysis of uploaded objects.
type Starter struct {
	API         TextractAPI
	Bucket      string
	SNSTopicARN string
	RoleARN     string
}

// Start requests LAYOUT analysis of key. Completion is published to the SNS
// channel but is discovered by polling.
func (s *Starter) Start(ctx context.Context, key string) StartResult {
	key = strings.TrimSpace(key)
	if key == "" {
		return StartResult{Error: errors.New("s3Name is required").Error()}
	}

	in := &textract.StartDocumentAnalysisInput{
		DocumentLocation: &types.DocumentLocation{
			S3Object: &types.S3Object{
				Bucket: aws.String(s.Bucket),
				Name:   aws.String(key),
			},
		},
		FeatureTypes: []types.FeatureType{types.FeatureTypeLayout},
		JobTag:       aws.String(jobTag(key)),
		NotificationChannel: &types.NotificationChannel{
			SNSTopicArn: aws.String(s.SNSTopicARN),
			RoleArn:     aws.String(s.RoleARN),
		},
	}

	fields := map[string]any{
		"request_id": requestIDFromContext(ctx),
		"bucket":     s.Bucket,
		"s3_name":    key,
	}

	out, err := s.API.StartDocumentAnalysis(ctx, in)
	if err != nil {
		metrics.IncJobsStartFailed()
		fields["error"] = err
		telemetry.Error("textract.start_failed", fields)
		return StartResult{Error: err.Error()}
	}

	status := httpStatusOf(out.ResultMetadata)
	jobID := aws.ToString(out.JobId)
	if status != http.StatusOK || jobID == "" {
		metrics.IncJobsStartFailed()
		fields["http_status"] = status
		fields["aws_request_id"] = requestIDOf(out.ResultMetadata)
		telemetry.Error("textract.start_unexpected", fields)
		return StartResult{Error: fmt.Sprintf("%d Error: Unexpected response from Textract", status)}
	}

	metrics.IncJobsStarted()
	fields["job_id"] = jobID
	telemetry.Info("textract.started", fields)
	return StartResult{Success: true, JobID: jobID}
}
