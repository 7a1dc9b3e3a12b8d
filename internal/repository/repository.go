package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/avoronov/identity-service/pkg/database"
)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx, so the
// same repository code runs inside and outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repositories holds all repository interfaces
type Repositories struct {
	User         UserRepository
	AuthProvider AuthProviderRepository

	db *database.Postgres
}

var _ Transactor = &Repositories{}

// NewRepositories creates all repositories
func NewRepositories(db *database.Postgres) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		AuthProvider: NewAuthProviderRepository(db),
		db:           db,
	}
}

// WithinTx runs fn with transaction-bound repositories. If fn returns an error
// the transaction is rolled back and no partial rows remain.
func (r *Repositories) WithinTx(ctx context.Context, fn TxFunc) error {
	tx, err := r.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	users := &userRepository{db: tx}
	providers := &authProviderRepository{db: tx}

	if err := fn(users, providers); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v after: %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
