package analyses

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsmiddleware "github.com/aws/aws-sdk-go-v2/aws/middleware"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// TextractAPI is the subset of the Textract client used here.
type TextractAPI interface {
	StartDocumentAnalysis(ctx context.Context, in *textract.StartDocumentAnalysisInput, optFns ...func(*textract.Options)) (*textract.StartDocumentAnalysisOutput, error)
	GetDocumentAnalysis(ctx context.Context, in *textract.GetDocumentAnalysisInput, optFns ...func(*textract.Options)) (*textract.GetDocumentAnalysisOutput, error)
}

// NewTextractClient builds the Textract client from shared AWS config.
func NewTextractClient(cfg aws.Config) *textract.Client {
	return textract.NewFromConfig(cfg)
}

var (
	httpStatusOf = func(md middleware.Metadata) int {
		if raw, ok := awsmiddleware.GetRawResponse(md).(*smithyhttp.Response); ok && raw != nil {
			return raw.StatusCode
		}
		return 0
	}
	requestIDOf = func(md middleware.Metadata) string {
		id, _ := awsmiddleware.GetRequestIDMetadata(md)
		return id
	}
)

const maxJobTagLen = 64

// jobTag builds the Textract job tag for key. Tags allow [a-zA-Z0-9_.\-:] and at most 64 characters.
func jobTag(key string) string {
	var b strings.Builder
	b.WriteString("job_for_")
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '_', r == '.', r == '-', r == ':':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	tag := b.String()
	if len(tag) > maxJobTagLen {
		tag = tag[:maxJobTagLen]
	}
	return tag
}
