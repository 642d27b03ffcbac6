package gateway

import (
	"context"
	"time"
)

//go:generate mockgen -destination=mocks/mock_gateway.go -package=mocks github.com/stefando/ingestGatewayAWS/internal/gateway CredentialIssuer,CompletionChecker,WorkflowDispatcher

// Credential is a short-lived presigned POST for exactly one object.
type Credential struct {
	URL       string            `json:"url"`
	Fields    map[string]string `json:"fields"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// Decision is the outcome of a completion check for one batch.
type Decision int

const (
	NotComplete Decision = iota
	FirstCompletion
	AlreadyCompleted
)

func (d Decision) String() string {
	switch d {
	case NotComplete:
		return "NOT_COMPLETE"
	case FirstCompletion:
		return "FIRST_COMPLETION"
	case AlreadyCompleted:
		return "ALREADY_COMPLETED"
	default:
		return "UNKNOWN"
	}
}

// TriggerResult identifies the workflow run started for a completed batch.
type TriggerResult struct {
	RunID string
}

// CredentialIssuer mints a write credential scoped to one object key.
type CredentialIssuer interface {
	Authorize(ctx context.Context, bucket, objectKey string, ttl time.Duration) (*Credential, error)
}

// Mark is the result of one completion check. TriggerID identifies the claim
// a FirstCompletion made and is empty otherwise.
type Mark struct {
	Decision  Decision
	TriggerID string
}

// CompletionChecker records last-file signals and reports whether this one closed the batch.
type CompletionChecker interface {
	MarkAndCheck(ctx context.Context, batchKey string, isLast bool) (Mark, error)
	// Release undoes the claim made under triggerID, and only that claim.
	Release(ctx context.Context, batchKey, triggerID string) error
}

// WorkflowDispatcher starts one run of a named downstream workflow.
type WorkflowDispatcher interface {
	Dispatch(ctx context.Context, workflowName string, params map[string]string) (*TriggerResult, error)
}
