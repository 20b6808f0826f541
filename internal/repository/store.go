package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

// Store is the single entry point to persistence. Services receive it by injection.
type Store interface {
	Users() UserRepository
	RefreshTokens() RefreshTokenRepository
	Categories() CategoryRepository
	Products() ProductRepository
	Carts() CartRepository
	Orders() OrderRepository
	Inspections() InspectionRepository
	Garage() GarageRepository
	Mechanics() MechanicRepository

	// WithTx runs fn against a transactional Store. The transaction commits when fn
	// returns nil and rolls back otherwise. Nested calls reuse the outer transaction.
	WithTx(ctx context.Context, fn func(tx Store) error) error
}

type store struct {
	db   *sqlx.DB
	q    sqlx.ExtContext
	inTx bool
}

// NewStore creates a Store over the connection pool.
func NewStore(db *sqlx.DB) Store {
	return &store{db: db, q: db}
}

func (s *store) Users() UserRepository                 { return NewUserRepository(s.q) }
func (s *store) RefreshTokens() RefreshTokenRepository { return NewRefreshTokenRepository(s.q) }
func (s *store) Categories() CategoryRepository        { return NewCategoryRepository(s.q) }
func (s *store) Products() ProductRepository           { return NewProductRepository(s.q) }
func (s *store) Carts() CartRepository                 { return NewCartRepository(s.q) }
func (s *store) Orders() OrderRepository               { return NewOrderRepository(s.q) }
func (s *store) Inspections() InspectionRepository     { return NewInspectionRepository(s.q) }
func (s *store) Garage() GarageRepository              { return NewGarageRepository(s.q) }
func (s *store) Mechanics() MechanicRepository         { return NewMechanicRepository(s.q) }

func (s *store) WithTx(ctx context.Context, fn func(tx Store) error) (err error) {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&store{db: s.db, q: tx, inTx: true}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// execAffecting runs a write and maps zero affected rows to notFound.
func execAffecting(ctx context.Context, q sqlx.ExecerContext, notFound error, query string, args ...interface{}) error {
	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return notFound
	}

	return nil
}
