package storage

import "github.com/jackc/pgx/v5/pgxpool"

// Pool returns the underlying connection pool.
// This is used by tests to query the database directly.
func (p *PostgresDirectory) Pool() *pgxpool.Pool {
	return p.pool
}
