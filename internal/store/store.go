// Package store persists the account ledger as a whole document behind a
// narrow load/save contract, with file and MongoDB backends.
package store

import (
	"context"

	"tg_earning_bot/internal/domain"
)

// Store loads and saves the full ledger document. Load must return a usable
// (possibly empty) ledger even when it also returns an error; callers log
// the error and continue with what they got. Save replaces the previous
// contents entirely. Neither call serializes concurrent access; the handler
// owns that.
type Store interface {
	Load(ctx context.Context) (domain.Ledger, error)
	Save(ctx context.Context, ledger domain.Ledger) error
}
