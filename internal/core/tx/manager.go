// Package tx defines the transaction management contract.
// Domain services depend on this interface; the pgx implementation lives in
// infrastructure/storage/postgres.
package tx

import (
	"context"
)

// Manager runs units of work inside database transactions.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back; otherwise it
	// is committed. Nested calls reuse the transaction already carried in ctx,
	// so orchestrators can compose repository calls into one atomic unit.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
