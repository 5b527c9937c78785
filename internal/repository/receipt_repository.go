package repository

import (
	"context"
	"time"

	"ai-receipt/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	receiptColumns = []string{
		"id", "user_id", "image_id", "image_url", "merchant_name", "receipt_date", "currency", "category",
		"subtotal", "tax", "total", "raw_json", "reviewed", "created_at", "updated_at",
	}
	itemColumns = []string{"id", "receipt_id", "description", "quantity", "unit_price", "total_price"}
)

type PgReceiptRepository struct {
	db     Querier
	logger *zap.Logger
}

func NewReceiptRepository(db Querier, logger *zap.Logger) *PgReceiptRepository {
	return &PgReceiptRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts receipt and its items. Generated ids and timestamps are
// written back. Callers wanting atomicity run it inside Store.WithinTx.
func (r *PgReceiptRepository) Create(ctx context.Context, receipt *models.Receipt) error {
	query := squirrel.Insert("receipts").
		Columns("user_id", "image_id", "image_url", "merchant_name", "receipt_date", "currency", "category",
			"subtotal", "tax", "total", "raw_json", "reviewed").
		Values(receipt.UserID, receipt.ImageID, receipt.ImageURL, receipt.MerchantName, receipt.ReceiptDate,
			receipt.Currency, receipt.Category, receipt.Subtotal, receipt.Tax, receipt.Total, receipt.RawJSON, receipt.Reviewed).
		Suffix("RETURNING id, created_at, updated_at").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&receipt.ID, &receipt.CreatedAt, &receipt.UpdatedAt); err != nil {
		return err
	}

	return r.insertItems(ctx, receipt)
}

func (r *PgReceiptRepository) GetByIDAndUser(ctx context.Context, id int64, userID uuid.UUID) (*models.Receipt, error) {
	query := squirrel.Select(receiptColumns...).
		From("receipts").
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	receipt, err := scanReceipt(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, notFound(err)
	}

	if err := r.loadItems(ctx, []*models.Receipt{receipt}); err != nil {
		return nil, err
	}
	return receipt, nil
}

func (r *PgReceiptRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Receipt, error) {
	return r.list(ctx, listByUserQuery(userID))
}

func (r *PgReceiptRepository) ListByIDsAndUser(ctx context.Context, ids []int64, userID uuid.UUID) ([]*models.Receipt, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := squirrel.Select(receiptColumns...).
		From("receipts").
		Where(squirrel.Eq{"id": ids, "user_id": userID}).
		OrderBy("id").
		PlaceholderFormat(squirrel.Dollar)

	return r.list(ctx, query)
}

func (r *PgReceiptRepository) ListByUserAndDateRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]*models.Receipt, error) {
	return r.list(ctx, dateRangeQuery(userID, start, end))
}

// TotalsByUserAndDateRange returns the sum of totals (missing counted as
// zero) and the number of receipts dated within [start, end].
func (r *PgReceiptRepository) TotalsByUserAndDateRange(ctx context.Context, userID uuid.UUID, start, end time.Time) (decimal.Decimal, int64, error) {
	query := squirrel.Select("COALESCE(SUM(total), 0)", "COUNT(*)").
		From("receipts").
		Where(inDateRange(userID, start, end)).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return decimal.Zero, 0, err
	}

	var sum decimal.Decimal
	var count int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&sum, &count); err != nil {
		return decimal.Zero, 0, err
	}
	return sum, count, nil
}

// Update writes the scalar fields of receipt; items are left alone.
func (r *PgReceiptRepository) Update(ctx context.Context, receipt *models.Receipt) error {
	query := squirrel.Update("receipts").
		Set("merchant_name", receipt.MerchantName).
		Set("receipt_date", receipt.ReceiptDate).
		Set("currency", receipt.Currency).
		Set("category", receipt.Category).
		Set("subtotal", receipt.Subtotal).
		Set("tax", receipt.Tax).
		Set("total", receipt.Total).
		Set("reviewed", receipt.Reviewed).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": receipt.ID}).
		Suffix("RETURNING updated_at").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	return notFound(r.db.QueryRow(ctx, sql, args...).Scan(&receipt.UpdatedAt))
}

// ReplaceItems deletes every stored item of receipt and inserts receipt.Items.
func (r *PgReceiptRepository) ReplaceItems(ctx context.Context, receipt *models.Receipt) error {
	query := squirrel.Delete("receipt_items").
		Where(squirrel.Eq{"receipt_id": receipt.ID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return err
	}
	return r.insertItems(ctx, receipt)
}

// DeleteByIDs removes the receipts; their items go with them via cascade.
func (r *PgReceiptRepository) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := squirrel.Delete("receipts").
		Where(squirrel.Eq{"id": ids}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PgReceiptRepository) ExistsByImageID(ctx context.Context, imageID int64) (bool, error) {
	sql, args, err := existsByImageQuery(imageID)
	if err != nil {
		return false, err
	}

	var exists bool
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PgReceiptRepository) list(ctx context.Context, query squirrel.SelectBuilder) ([]*models.Receipt, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var receipts []*models.Receipt
	for rows.Next() {
		receipt, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, receipt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadItems(ctx, receipts); err != nil {
		return nil, err
	}
	return receipts, nil
}

// loadItems fetches the items of all receipts in one query.
func (r *PgReceiptRepository) loadItems(ctx context.Context, receipts []*models.Receipt) error {
	if len(receipts) == 0 {
		return nil
	}

	byID := make(map[int64]*models.Receipt, len(receipts))
	ids := make([]int64, 0, len(receipts))
	for _, receipt := range receipts {
		byID[receipt.ID] = receipt
		ids = append(ids, receipt.ID)
	}

	query := squirrel.Select(itemColumns...).
		From("receipt_items").
		Where(squirrel.Eq{"receipt_id": ids}).
		OrderBy("receipt_id", "id").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var item models.ReceiptItem
		if err := rows.Scan(
			&item.ID, &item.ReceiptID, &item.Description, &item.Quantity, &item.UnitPrice, &item.TotalPrice,
		); err != nil {
			return err
		}
		if receipt, ok := byID[item.ReceiptID]; ok {
			receipt.AddItem(&item)
		}
	}
	return rows.Err()
}

func (r *PgReceiptRepository) insertItems(ctx context.Context, receipt *models.Receipt) error {
	if len(receipt.Items) == 0 {
		return nil
	}

	builder := squirrel.Insert("receipt_items").
		Columns("receipt_id", "description", "quantity", "unit_price", "total_price").
		Suffix("RETURNING id").
		PlaceholderFormat(squirrel.Dollar)

	for _, item := range receipt.Items {
		item.ReceiptID = receipt.ID
		builder = builder.Values(item.ReceiptID, item.Description, item.Quantity, item.UnitPrice, item.TotalPrice)
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		if i < len(receipt.Items) {
			if err := rows.Scan(&receipt.Items[i].ID); err != nil {
				return err
			}
		}
		i++
	}
	return rows.Err()
}

func scanReceipt(row scanner) (*models.Receipt, error) {
	var receipt models.Receipt
	err := row.Scan(
		&receipt.ID, &receipt.UserID, &receipt.ImageID, &receipt.ImageURL, &receipt.MerchantName, &receipt.ReceiptDate,
		&receipt.Currency, &receipt.Category, &receipt.Subtotal, &receipt.Tax, &receipt.Total, &receipt.RawJSON,
		&receipt.Reviewed, &receipt.CreatedAt, &receipt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func listByUserQuery(userID uuid.UUID) squirrel.SelectBuilder {
	return squirrel.Select(receiptColumns...).
		From("receipts").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC").
		PlaceholderFormat(squirrel.Dollar)
}

func dateRangeQuery(userID uuid.UUID, start, end time.Time) squirrel.SelectBuilder {
	return squirrel.Select(receiptColumns...).
		From("receipts").
		Where(inDateRange(userID, start, end)).
		OrderBy("receipt_date DESC", "id DESC").
		PlaceholderFormat(squirrel.Dollar)
}

func inDateRange(userID uuid.UUID, start, end time.Time) squirrel.And {
	return squirrel.And{
		squirrel.Eq{"user_id": userID},
		squirrel.GtOrEq{"receipt_date": start},
		squirrel.LtOrEq{"receipt_date": end},
	}
}

func existsByImageQuery(imageID int64) (string, []interface{}, error) {
	sub := squirrel.Select("1").
		From("receipts").
		Where(squirrel.Eq{"image_id": imageID}).
		Limit(1)

	return squirrel.Select().
		Column(squirrel.Expr("EXISTS (?)", sub)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
}
