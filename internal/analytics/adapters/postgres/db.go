package postgres

import "context"

// RowScanner is the minimal cursor surface the store needs, so tests
// can fake result sets without a database.
type RowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

type DB interface {
	QueryContext(ctx context.Context, query string, args ...any) (RowScanner, error)
}
