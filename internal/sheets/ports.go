// Package sheets defines the export surface for ledger backups.
package sheets

import (
	"context"

	"recibo/internal/core"
)

// EntryAppender appends a ledger entry to an external backup sheet and
// returns a reference to the written row.
type EntryAppender interface {
	AppendEntry(ctx context.Context, e core.LedgerEntry) (string, error)
}
