package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/aws/aws-sdk-go-v2/service/glue/types"

	"github.com/stefando/ingestGatewayAWS/internal/gateway"
	"github.com/stefando/ingestGatewayAWS/internal/log"
)

// GlueAPI is the part of the Glue client the dispatcher uses.
type GlueAPI interface {
	StartWorkflowRun(ctx context.Context, params *glue.StartWorkflowRunInput, optFns ...func(*glue.Options)) (*glue.StartWorkflowRunOutput, error)
}

// GlueDispatcher starts AWS Glue workflow runs.
type GlueDispatcher struct {
	client GlueAPI
	logger *slog.Logger
}

func NewGlueDispatcher(client GlueAPI, logger *slog.Logger) *GlueDispatcher {
	return &GlueDispatcher{client: client, logger: log.WithComponent(logger, "workflow")}
}

// Dispatch starts workflowName with params as run properties.
func (d *GlueDispatcher) Dispatch(ctx context.Context, workflowName string, params map[string]string) (*gateway.TriggerResult, error) {
	if workflowName == "" {
		return nil, gateway.DispatchError("workflow name is not configured", nil)
	}

	input := &glue.StartWorkflowRunInput{Name: aws.String(workflowName)}
	if len(params) > 0 {
		input.RunProperties = params
	}

	out, err := d.client.StartWorkflowRun(ctx, input)
	if err != nil {
		return nil, classify(workflowName, err)
	}

	runID := aws.ToString(out.RunId)
	d.logger.Debug("started workflow run", "workflow", workflowName, "run_id", runID)
	return &gateway.TriggerResult{RunID: runID}, nil
}

func classify(workflowName string, err error) error {
	var (
		notFound   *types.EntityNotFoundException
		concurrent *types.ConcurrentRunsExceededException
	)
	switch {
	case errors.As(err, &notFound):
		return gateway.DispatchError(fmt.Sprintf("workflow %s not found", workflowName), err)
	case errors.As(err, &concurrent):
		return gateway.DispatchError(fmt.Sprintf("workflow %s has too many concurrent runs", workflowName), err)
	default:
		return gateway.DispatchError(fmt.Sprintf("failed to start workflow %s", workflowName), err)
	}
}
