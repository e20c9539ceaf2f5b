// Package memory is an in-memory EntryAppender used by tests and local
// runs without Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"recibo/internal/core"
	ports "recibo/internal/sheets"
)

type Appender struct {
	mu      sync.Mutex
	Rows    []core.LedgerEntry
	FailErr error
}

var _ ports.EntryAppender = (*Appender)(nil)

func New() *Appender {
	return &Appender{}
}

func (a *Appender) AppendEntry(_ context.Context, e core.LedgerEntry) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.FailErr != nil {
		return "", a.FailErr
	}
	a.Rows = append(a.Rows, e)
	return fmt.Sprintf("memory!A%d", len(a.Rows)), nil
}
