package repository

import (
	"context"
	"errors"
	"time"

	"ai-receipt/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrNotFound = errors.New("record not found")

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx, so repositories
// run unchanged inside or outside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Upsert(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
}

type ImageRepository interface {
	Create(ctx context.Context, img *models.ImageAsset) error
	GetByIDAndUser(ctx context.Context, id int64, userID uuid.UUID) (*models.ImageAsset, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id int64) (*models.ImageAsset, error)
	Delete(ctx context.Context, id int64) error
}

type ReceiptRepository interface {
	Create(ctx context.Context, receipt *models.Receipt) error
	GetByIDAndUser(ctx context.Context, id int64, userID uuid.UUID) (*models.Receipt, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Receipt, error)
	ListByIDsAndUser(ctx context.Context, ids []int64, userID uuid.UUID) ([]*models.Receipt, error)
	ListByUserAndDateRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]*models.Receipt, error)
	TotalsByUserAndDateRange(ctx context.Context, userID uuid.UUID, start, end time.Time) (decimal.Decimal, int64, error)
	Update(ctx context.Context, receipt *models.Receipt) error
	ReplaceItems(ctx context.Context, receipt *models.Receipt) error
	DeleteByIDs(ctx context.Context, ids []int64) (int64, error)
	ExistsByImageID(ctx context.Context, imageID int64) (bool, error)
}

// Store groups the repositories. WithinTx runs fn against a Store bound to
// one transaction, committed when fn returns nil and rolled back otherwise.
type Store interface {
	Users() UserRepository
	Images() ImageRepository
	Receipts() ReceiptRepository
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

type PostgresStore struct {
	db       Querier
	logger   *zap.Logger
	users    *PgUserRepository
	images   *PgImageRepository
	receipts *PgReceiptRepository
}

func NewStore(db Querier, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{
		db:       db,
		logger:   logger,
		users:    NewUserRepository(db, logger),
		images:   NewImageRepository(db, logger),
		receipts: NewReceiptRepository(db, logger),
	}
}

func (s *PostgresStore) Users() UserRepository       { return s.users }
func (s *PostgresStore) Images() ImageRepository     { return s.images }
func (s *PostgresStore) Receipts() ReceiptRepository { return s.receipts }

func (s *PostgresStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		return fn(NewStore(tx, s.logger))
	})
}

// scanner is the common Scan method of pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
