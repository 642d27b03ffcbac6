// Package completion decides, exactly once per batch, that a batch is complete.
//
// The detector never counts files. A batch is complete when a client says so
// with is_last; the first such signal to claim the batch key in the store wins
// and every later one, concurrent or retried, is told the batch was already
// completed. Claims expire after a retention window so that a batch key can be
// reused later (for example the next day when the batch marker is a date).
package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stefando/ingestGatewayAWS/internal/gateway"
	"github.com/stefando/ingestGatewayAWS/internal/log"
)

var (
	// ErrEmptyBatchKey is returned when a store is asked about an empty key.
	ErrEmptyBatchKey = errors.New("batch key is empty")
	// ErrEmptyTriggerID is returned when a release names no claim.
	ErrEmptyTriggerID = errors.New("trigger id is empty")
)

// Record is the completion marker persisted for one batch.
type Record struct {
	BatchKey    string    `dynamodbav:"batch_key" json:"batch_key"`
	TriggerID   string    `dynamodbav:"trigger_id" json:"trigger_id"`
	CompletedAt time.Time `dynamodbav:"completed_at" json:"completed_at"`
	ExpiresAt   int64     `dynamodbav:"expires_at" json:"expires_at"` // unix seconds, DynamoDB TTL attribute
}

// Store is an atomic set-if-absent keyed by batch key.
type Store interface {
	// SetIfAbsent stores rec unless an unexpired record exists for rec.BatchKey.
	// It reports whether rec was stored. Records whose ExpiresAt is at or before
	// now count as absent.
	SetIfAbsent(ctx context.Context, rec Record, now time.Time) (bool, error)

	// Delete removes the record for batchKey if it still carries triggerID.
	// A missing record, or one claimed under another trigger, is left alone
	// and is not an error.
	Delete(ctx context.Context, batchKey, triggerID string) error
}

// Detector implements gateway.CompletionChecker on top of a Store.
type Detector struct {
	store  Store
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewDetector creates a detector whose completion marks live for ttl.
func NewDetector(store Store, ttl time.Duration, logger *slog.Logger) *Detector {
	return &Detector{
		store:  store,
		ttl:    ttl,
		logger: log.WithComponent(logger, "completion"),
		now:    time.Now,
	}
}

// MarkAndCheck records the last-file signal for batchKey.
// Non-last signals never touch the store. A FirstCompletion mark carries the
// trigger id of the claim it made.
func (d *Detector) MarkAndCheck(ctx context.Context, batchKey string, isLast bool) (gateway.Mark, error) {
	if !isLast {
		return gateway.Mark{Decision: gateway.NotComplete}, nil
	}
	if batchKey == "" {
		return gateway.Mark{Decision: gateway.NotComplete}, ErrEmptyBatchKey
	}

	now := d.now().UTC()
	rec := Record{
		BatchKey:    batchKey,
		TriggerID:   uuid.NewString(),
		CompletedAt: now,
		ExpiresAt:   now.Add(d.ttl).Unix(),
	}

	stored, err := d.store.SetIfAbsent(ctx, rec, now)
	if err != nil {
		return gateway.Mark{Decision: gateway.NotComplete}, fmt.Errorf("mark batch %s complete: %w", batchKey, err)
	}
	if !stored {
		d.logger.Debug("duplicate completion signal", "batch_key", batchKey)
		return gateway.Mark{Decision: gateway.AlreadyCompleted}, nil
	}

	d.logger.Debug("batch completed", "batch_key", batchKey, "trigger_id", rec.TriggerID)
	return gateway.Mark{Decision: gateway.FirstCompletion, TriggerID: rec.TriggerID}, nil
}

// Release drops the claim triggerID holds on batchKey so a later signal can
// trigger again. A claim that expired and was taken by another trigger stays.
func (d *Detector) Release(ctx context.Context, batchKey, triggerID string) error {
	if batchKey == "" {
		return ErrEmptyBatchKey
	}
	if triggerID == "" {
		return ErrEmptyTriggerID
	}
	if err := d.store.Delete(ctx, batchKey, triggerID); err != nil {
		return fmt.Errorf("release batch %s: %w", batchKey, err)
	}
	return nil
}
