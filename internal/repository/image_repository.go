package repository

import (
	"context"

	"ai-receipt/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var imageColumns = []string{"id", "user_id", "object_key", "original_filename", "content_type", "size_bytes", "created_at"}

type PgImageRepository struct {
	db     Querier
	logger *zap.Logger
}

func NewImageRepository(db Querier, logger *zap.Logger) *PgImageRepository {
	return &PgImageRepository{
		db:     db,
		logger: logger,
	}
}

func (r *PgImageRepository) Create(ctx context.Context, img *models.ImageAsset) error {
	query := squirrel.Insert("image_assets").
		Columns("user_id", "object_key", "original_filename", "content_type", "size_bytes").
		Values(img.UserID, img.ObjectKey, img.OriginalFilename, img.ContentType, img.SizeBytes).
		Suffix("RETURNING id, created_at").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	return r.db.QueryRow(ctx, sql, args...).Scan(&img.ID, &img.CreatedAt)
}

func (r *PgImageRepository) GetByIDAndUser(ctx context.Context, id int64, userID uuid.UUID) (*models.ImageAsset, error) {
	query := squirrel.Select(imageColumns...).
		From("image_assets").
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		PlaceholderFormat(squirrel.Dollar)

	return r.getOne(ctx, query)
}

func (r *PgImageRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.ImageAsset, error) {
	query := squirrel.Select(imageColumns...).
		From("image_assets").
		Where(squirrel.Eq{"id": id}).
		Suffix("FOR UPDATE").
		PlaceholderFormat(squirrel.Dollar)

	return r.getOne(ctx, query)
}

func (r *PgImageRepository) Delete(ctx context.Context, id int64) error {
	query := squirrel.Delete("image_assets").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgImageRepository) getOne(ctx context.Context, query squirrel.SelectBuilder) (*models.ImageAsset, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var img models.ImageAsset
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&img.ID, &img.UserID, &img.ObjectKey, &img.OriginalFilename, &img.ContentType, &img.SizeBytes, &img.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}

	return &img, nil
}
