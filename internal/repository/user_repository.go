package repository

import (
	"context"
	"errors"

	"ai-receipt/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// ErrDuplicate reports a unique constraint violation.
var ErrDuplicate = errors.New("record already exists")

const uniqueViolation = "23505"

var userColumns = []string{"id", "username", "email", "currency", "is_active", "created_at", "updated_at"}

type PgUserRepository struct {
	db     Querier
	logger *zap.Logger
}

func NewUserRepository(db Querier, logger *zap.Logger) *PgUserRepository {
	return &PgUserRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts user or, when the email is taken, refreshes its username.
// The stored id, profile defaults and timestamps are written back into user.
func (r *PgUserRepository) Upsert(ctx context.Context, user *models.User) error {
	query := squirrel.Insert("users").
		Columns("id", "username", "email").
		Values(user.ID, user.Username, user.Email).
		Suffix("ON CONFLICT (email) DO UPDATE SET username = EXCLUDED.username, updated_at = NOW() " +
			"RETURNING id, currency, is_active, created_at, updated_at").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	return r.db.QueryRow(ctx, sql, args...).Scan(
		&user.ID, &user.Currency, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getBy(ctx, squirrel.Eq{"email": email})
}

func (r *PgUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getBy(ctx, squirrel.Eq{"username": username})
}

func (r *PgUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	sql, args, err := existsByEmailQuery(email)
	if err != nil {
		return false, err
	}

	var exists bool
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Update saves the editable profile fields and refreshes user.UpdatedAt.
// A taken email is reported as ErrDuplicate.
func (r *PgUserRepository) Update(ctx context.Context, user *models.User) error {
	sql, args, err := updateUserQuery(user).ToSql()
	if err != nil {
		return err
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			r.logger.Debug("Profile update hit a unique constraint",
				zap.String("user_id", user.ID.String()),
				zap.String("constraint", pgErr.ConstraintName),
			)
			return ErrDuplicate
		}
		return notFound(err)
	}
	return nil
}

func (r *PgUserRepository) getBy(ctx context.Context, where squirrel.Eq) (*models.User, error) {
	query := squirrel.Select(userColumns...).
		From("users").
		Where(where).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var user models.User
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&user.ID, &user.Username, &user.Email, &user.Currency, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}

	return &user, nil
}

func updateUserQuery(user *models.User) squirrel.UpdateBuilder {
	return squirrel.Update("users").
		Set("email", user.Email).
		Set("currency", user.Currency).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": user.ID}).
		Suffix("RETURNING updated_at").
		PlaceholderFormat(squirrel.Dollar)
}

func existsByEmailQuery(email string) (string, []interface{}, error) {
	sub := squirrel.Select("1").
		From("users").
		Where(squirrel.Eq{"email": email}).
		Limit(1)

	return squirrel.Select().
		Column(squirrel.Expr("EXISTS (?)", sub)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
}
