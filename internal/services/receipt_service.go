// Package services orchestrates the receipt-to-ledger pipeline.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"recibo/internal/core"
	"recibo/internal/ledger"
	"recibo/internal/ocr"
	"recibo/internal/receipt"
)

// entryTitle and the description prefix follow the templates of the mobile
// app that consumes this API.
const (
	entryTitle        = "Lançamento via Recibo"
	descriptionPrefix = "Lançamento automático via recibo: "
	excerptLen        = 100
)

// ErrNotAnImage rejects uploads whose declared MIME type is not image/*.
var ErrNotAnImage = errors.New("uploaded file is not an image")

// EventPublisher emits entry-created events for the export worker.
// Publishing is best-effort; a nil publisher disables it.
type EventPublisher interface {
	PublishEntryCreated(ctx context.Context, id, version int64) error
}

// ReceiptService runs the upload pipeline: recognize, assemble, parse,
// classify, persist, evaluate goals, notify. Each request runs the stages
// sequentially; any stage failure aborts the rest.
type ReceiptService struct {
	engine    ocr.Engine
	entries   ledger.EntryStore
	evaluator *GoalEvaluator
	publisher EventPublisher
	now       func() time.Time
}

func NewReceiptService(engine ocr.Engine, entries ledger.EntryStore, evaluator *GoalEvaluator, publisher EventPublisher) *ReceiptService {
	return &ReceiptService{
		engine:    engine,
		entries:   entries,
		evaluator: evaluator,
		publisher: publisher,
		now:       time.Now,
	}
}

// ExtractFragments is the diagnostic path behind POST /ocr: MIME check,
// decode, recognize. No parsing, no persistence.
func (s *ReceiptService) ExtractFragments(ctx context.Context, mimeType string, image []byte) ([]ocr.Fragment, error) {
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, ErrNotAnImage
	}
	return s.engine.Recognize(ctx, image)
}

// ProcessReceipt converts a receipt image into a persisted ledger entry for
// the owner and evaluates the owner's goals against the new period sum.
//
// The entry insert and the goal-sum read are separate statements, not one
// serializable transaction: two concurrent uploads for the same owner and
// period can each read a pre-threshold sum and neither will notify even
// though their combined total crosses it.
func (s *ReceiptService) ProcessReceipt(ctx context.Context, userID int64, mimeType string, image []byte) (core.LedgerEntry, error) {
	fragments, err := s.ExtractFragments(ctx, mimeType, image)
	if err != nil {
		return core.LedgerEntry{}, err
	}

	text := receipt.AssembleText(fragments)
	amount, err := receipt.ParseAmount(text)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	direction := receipt.ClassifyDirection(text)

	entry := core.LedgerEntry{
		Title: entryTitle,
		// Ingestion time, never a date parsed from the receipt.
		Date:        s.now(),
		Description: descriptionPrefix + excerpt(text, excerptLen),
		Amount:      amount,
		Direction:   direction,
		UserID:      userID,
	}
	created, err := s.entries.CreateEntry(ctx, entry)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("create entry: %w", err)
	}
	slog.InfoContext(ctx, "Ledger entry created from receipt",
		"id", created.ID,
		"user_id", userID,
		"direction", created.Direction.String(),
		"amount_cents", created.Amount.Cents,
		"fragments", len(fragments))

	if err := s.evaluator.Evaluate(ctx, created); err != nil {
		return core.LedgerEntry{}, fmt.Errorf("evaluate goals: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishEntryCreated(ctx, created.ID, 1); err != nil {
			// Export is asynchronous and reconciled by the worker; a failed
			// publish must not fail the upload.
			slog.ErrorContext(ctx, "Failed to publish entry-created event",
				"id", created.ID, "error", err)
		}
	}
	return created, nil
}

func excerpt(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
