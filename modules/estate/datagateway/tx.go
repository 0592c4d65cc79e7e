package datagateway

import "context"

// Tx ends a transaction started by BeginEstateTx. Both methods are no-ops once the
// transaction is over, so a deferred Rollback after a successful Commit is fine.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
