package sheets

import (
	"context"

	"agency/internal/core"
)

// Ports for the ledger backup adapters.
type (
	// LedgerWriter appends one transaction to the backup ledger and
	// returns a row reference usable in logs.
	LedgerWriter interface {
		Append(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}

	// LedgerDeleter removes a previously mirrored transaction, located by
	// the row snapshot carried in the delete event.
	LedgerDeleter interface {
		Delete(ctx context.Context, t core.Transaction) error
	}
)
