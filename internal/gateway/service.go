package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stefando/ingestGatewayAWS/internal/log"
)

// Config holds what the orchestrator needs to know about its environment.
type Config struct {
	Bucket       string
	WorkflowName string
	PresignTTL   time.Duration
	Defaults     Defaults
}

// Result is what a successful request returns to the uploading client.
type Result struct {
	Credential *Credential
	ObjectKey  string
	BatchKey   string
	Decision   Decision
	RunID      string
}

// Service composes credential issuing, completion detection and workflow dispatch
// for one inbound upload request.
type Service struct {
	cfg        Config
	issuer     CredentialIssuer
	completion CompletionChecker
	dispatcher WorkflowDispatcher
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a gateway service. A nil logger uses slog.Default.
func NewService(cfg Config, issuer CredentialIssuer, completion CompletionChecker, dispatcher WorkflowDispatcher, logger *slog.Logger) *Service {
	return &Service{
		cfg:        cfg,
		issuer:     issuer,
		completion: completion,
		dispatcher: dispatcher,
		logger:     log.WithComponent(logger, "gateway"),
		now:        time.Now,
	}
}

// Handle runs one request through validation, authorization and the completion check.
// The only errors returned are validation, authorization and internal failures;
// completion and dispatch problems are logged and never fail the upload.
func (s *Service) Handle(ctx context.Context, in Input) (*Result, error) {
	req, err := s.cfg.Defaults.Parse(in, s.now())
	if err != nil {
		s.logger.Info("rejected upload request", "error", err, "file_name", in.FileName)
		return nil, err
	}

	key := req.ObjectKey()
	logger := s.logger.With(
		slog.String("tenant_id", req.TenantID),
		slog.String("source_system", req.SourceSystem),
		slog.String("object_key", key),
	)

	cred, err := s.issuer.Authorize(ctx, s.cfg.Bucket, key, s.cfg.PresignTTL)
	if err != nil {
		if KindOf(err) != KindValidation {
			err = AuthorizationError(err)
		}
		logger.Error("failed to issue upload credential", "error", err)
		return nil, err
	}
	if cred == nil {
		return nil, InternalError(fmt.Errorf("credential issuer returned no credential for %s", key))
	}

	result := &Result{
		Credential: cred,
		ObjectKey:  key,
		BatchKey:   req.BatchKey(),
		Decision:   NotComplete,
	}

	if req.IsLast {
		s.completeBatch(ctx, req, result, logger)
	}

	logger.Info("issued upload credential",
		"is_last", req.IsLast,
		"decision", result.Decision.String(),
		"expires_at", cred.ExpiresAt,
	)
	return result, nil
}

// completeBatch records the last-file signal and fires the workflow at most once per batch.
func (s *Service) completeBatch(ctx context.Context, req UploadRequest, result *Result, logger *slog.Logger) {
	batchKey := req.BatchKey()
	logger = logger.With(slog.String("batch_key", batchKey))

	mark, err := s.completion.MarkAndCheck(ctx, batchKey, true)
	if err != nil {
		// Without a confirmed mark we cannot know whether another invocation fired.
		logger.Error("completion check failed, workflow not triggered", "error", err)
		return
	}
	result.Decision = mark.Decision

	if mark.Decision != FirstCompletion {
		logger.Info("batch already completed, skipping workflow trigger")
		return
	}

	run, err := s.dispatcher.Dispatch(ctx, s.cfg.WorkflowName, req.WorkflowParams())
	if err != nil {
		logger.Error("workflow dispatch failed", "workflow", s.cfg.WorkflowName, "error", err)
		if relErr := s.completion.Release(ctx, batchKey, mark.TriggerID); relErr != nil {
			logger.Error("failed to release completion mark", "error", relErr)
		}
		return
	}

	if run != nil {
		result.RunID = run.RunID
	}
	logger.Info("triggered workflow", "workflow", s.cfg.WorkflowName, "run_id", result.RunID)
}
