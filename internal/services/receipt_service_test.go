package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"recibo/internal/core"
	"recibo/internal/ledger"
	"recibo/internal/ledger/memory"
	"recibo/internal/ocr"
	"recibo/internal/receipt"
)

// stubEngine returns canned fragments or a fixed error.
type stubEngine struct {
	fragments []ocr.Fragment
	err       error
}

func (s *stubEngine) Recognize(_ context.Context, _ []byte) ([]ocr.Fragment, error) {
	return s.fragments, s.err
}

type recordingPublisher struct {
	ids []int64
	err error
}

func (p *recordingPublisher) PublishEntryCreated(_ context.Context, id, _ int64) error {
	if p.err != nil {
		return p.err
	}
	p.ids = append(p.ids, id)
	return nil
}

func fragmentsFor(words ...string) []ocr.Fragment {
	out := make([]ocr.Fragment, 0, len(words))
	for i, w := range words {
		out = append(out, ocr.Fragment{
			Text:       w,
			Confidence: 0.9,
			Box:        ocr.BoundingBox{XMin: i * 10, YMin: 0, XMax: i*10 + 9, YMax: 12},
		})
	}
	return out
}

func newService(engine ocr.Engine, publisher EventPublisher) (*ReceiptService, *memory.Store) {
	store := memory.New()
	eval := NewGoalEvaluator(store, store, store)
	svc := NewReceiptService(engine, store, eval, publisher)
	svc.now = func() time.Time { return time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC) }
	return svc, store
}

func TestProcessReceiptPersistsExpense(t *testing.T) {
	engine := &stubEngine{fragments: fragmentsFor("Mercado", "Total", "R$", "123,45")}
	pub := &recordingPublisher{}
	svc, store := newService(engine, pub)

	entry, err := svc.ProcessReceipt(context.Background(), 1, "image/jpeg", []byte("img"))
	if err != nil {
		t.Fatal(err)
	}
	if entry.Amount.Cents != 12345 {
		t.Fatalf("amount = %d, want 12345", entry.Amount.Cents)
	}
	if entry.Direction != core.Expense {
		t.Fatalf("direction = %v, want Expense", entry.Direction)
	}
	if entry.Title != "Lançamento via Recibo" {
		t.Fatalf("title = %q", entry.Title)
	}
	if !strings.HasPrefix(entry.Description, "Lançamento automático via recibo: ") {
		t.Fatalf("description = %q", entry.Description)
	}
	if !entry.Date.Equal(time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)) {
		t.Fatalf("entry date should be ingestion time, got %v", entry.Date)
	}

	stored, err := store.GetEntry(context.Background(), entry.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Amount.Cents != 12345 {
		t.Fatalf("stored amount = %d", stored.Amount.Cents)
	}
	if len(pub.ids) != 1 || pub.ids[0] != entry.ID {
		t.Fatalf("expected publish for entry %d, got %v", entry.ID, pub.ids)
	}
}

func TestProcessReceiptClassifiesIncome(t *testing.T) {
	engine := &stubEngine{fragments: fragmentsFor("PIX", "recebido", "R$", "100,00")}
	svc, store := newService(engine, nil)

	if _, err := store.CreateGoal(context.Background(), core.Goal{
		Month: 6, Year: 2024, Threshold: core.Money{Cents: 1}, UserID: 1,
	}); err != nil {
		t.Fatal(err)
	}

	entry, err := svc.ProcessReceipt(context.Background(), 1, "image/png", []byte("img"))
	if err != nil {
		t.Fatal(err)
	}
	if entry.Direction != core.Income {
		t.Fatalf("direction = %v, want Income", entry.Direction)
	}
	ns, err := store.ListNotifications(context.Background(), 1, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(ns) != 0 {
		t.Fatalf("income must not trigger goals, got %d notifications", len(ns))
	}
}

func TestProcessReceiptNoAmountCreatesNothing(t *testing.T) {
	engine := &stubEngine{fragments: fragmentsFor("nota", "fiscal", "sem", "valor")}
	svc, store := newService(engine, nil)

	_, err := svc.ProcessReceipt(context.Background(), 1, "image/jpeg", []byte("img"))
	if !errors.Is(err, receipt.ErrNoAmount) {
		t.Fatalf("want ErrNoAmount, got %v", err)
	}
	entries, err := store.ListEntries(context.Background(), 1, ledger.EntryFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("no entry may be created when no amount is found, got %d", len(entries))
	}
}

func TestProcessReceiptEmptyFragmentsIsNoAmount(t *testing.T) {
	engine := &stubEngine{fragments: nil}
	svc, _ := newService(engine, nil)

	_, err := svc.ProcessReceipt(context.Background(), 1, "image/jpeg", []byte("img"))
	if !errors.Is(err, receipt.ErrNoAmount) {
		t.Fatalf("want ErrNoAmount for empty fragments, got %v", err)
	}
}

func TestProcessReceiptRejectsNonImageMIME(t *testing.T) {
	svc, _ := newService(&stubEngine{}, nil)

	_, err := svc.ProcessReceipt(context.Background(), 1, "application/pdf", []byte("%PDF"))
	if !errors.Is(err, ErrNotAnImage) {
		t.Fatalf("want ErrNotAnImage, got %v", err)
	}
}

func TestProcessReceiptPropagatesDecodeError(t *testing.T) {
	engine := &stubEngine{err: fmt.Errorf("%w: bad jpeg", ocr.ErrDecode)}
	svc, _ := newService(engine, nil)

	_, err := svc.ProcessReceipt(context.Background(), 1, "image/jpeg", []byte("not an image"))
	if !errors.Is(err, ocr.ErrDecode) {
		t.Fatalf("want ErrDecode, got %v", err)
	}
}

func TestProcessReceiptPropagatesInferenceError(t *testing.T) {
	engine := &stubEngine{err: fmt.Errorf("%w: tesseract crashed", ocr.ErrInference)}
	svc, _ := newService(engine, nil)

	_, err := svc.ProcessReceipt(context.Background(), 1, "image/jpeg", []byte("img"))
	if !errors.Is(err, ocr.ErrInference) {
		t.Fatalf("want ErrInference, got %v", err)
	}
}

func TestProcessReceiptTruncatesLongDescription(t *testing.T) {
	words := []string{"r$", "10,00"}
	for i := 0; i < 60; i++ {
		words = append(words, "padding")
	}
	engine := &stubEngine{fragments: fragmentsFor(words...)}
	svc, _ := newService(engine, nil)

	entry, err := svc.ProcessReceipt(context.Background(), 1, "image/jpeg", []byte("img"))
	if err != nil {
		t.Fatal(err)
	}
	body := strings.TrimPrefix(entry.Description, "Lançamento automático via recibo: ")
	if !strings.HasSuffix(body, "...") {
		t.Fatalf("long excerpt should end with ellipsis: %q", body)
	}
	if got := len([]rune(strings.TrimSuffix(body, "..."))); got != 100 {
		t.Fatalf("excerpt length = %d runes, want 100", got)
	}
}

func TestProcessReceiptPublishFailureDoesNotFailUpload(t *testing.T) {
	engine := &stubEngine{fragments: fragmentsFor("r$", "10,00")}
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc, store := newService(engine, pub)

	entry, err := svc.ProcessReceipt(context.Background(), 1, "image/jpeg", []byte("img"))
	if err != nil {
		t.Fatalf("publish failure must not fail the upload: %v", err)
	}
	if _, err := store.GetEntry(context.Background(), entry.ID); err != nil {
		t.Fatalf("entry should be persisted: %v", err)
	}
}

func TestExtractFragmentsPassesThrough(t *testing.T) {
	want := fragmentsFor("r$", "5,00")
	svc, _ := newService(&stubEngine{fragments: want}, nil)

	got, err := svc.ExtractFragments(context.Background(), "image/webp", []byte("img"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(want) || got[0].Text != "r$" {
		t.Fatalf("unexpected fragments: %+v", got)
	}
}
