package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle threaded through repository calls.
// Repositories accept nil for the non-transactional path; the concrete type
// is infra-defined (pgx.Tx for Postgres).
type Tx interface{}

// NoTx marks an explicitly non-transactional call.
var NoTx Tx

// TransactionManager executes a function within a database transaction,
// passing the transaction handle to the callback. Keeping the handle opaque
// keeps use-case interfaces free of storage types while still letting
// repositories run SELECT ... FOR UPDATE and conditional writes on the same
// connection.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
