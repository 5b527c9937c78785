package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"ai-receipt/internal/dto"
	"ai-receipt/internal/extraction"
	"ai-receipt/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// statsCurrency is reported on category stats; amounts are not converted.
const statsCurrency = "USD"

type StatsService struct {
	store  repository.Store
	now    func() time.Time
	logger *zap.Logger
}

func NewStatsService(store repository.Store, logger *zap.Logger) *StatsService {
	return &StatsService{
		store:  store,
		now:    time.Now,
		logger: logger,
	}
}

// WithClock replaces the clock used to pick the current month.
func (s *StatsService) WithClock(now func() time.Time) *StatsService {
	s.now = now
	return s
}

func (s *StatsService) MonthlyStats(ctx context.Context, principal string) (*dto.MonthlyStatsResponse, error) {
	user, err := resolveUser(ctx, s.store.Users(), principal)
	if err != nil {
		return nil, err
	}

	start, end := monthBounds(s.now())
	total, count, err := s.store.Receipts().TotalsByUserAndDateRange(ctx, user.ID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to compute monthly totals: %w", err)
	}

	return &dto.MonthlyStatsResponse{
		TotalSpentThisMonth:        total,
		ReceiptsProcessedThisMonth: count,
	}, nil
}

// CategoryStats groups spending by category over [start, end], or over the
// current month when both bounds are nil.
func (s *StatsService) CategoryStats(ctx context.Context, principal string, start, end *time.Time) (*dto.CategoryStatsResponse, error) {
	if start == nil && end == nil {
		monthStart, monthEnd := monthBounds(s.now())
		start, end = &monthStart, &monthEnd
	}
	if err := validateRange(start, end); err != nil {
		return nil, err
	}

	user, err := resolveUser(ctx, s.store.Users(), principal)
	if err != nil {
		return nil, err
	}

	receipts, err := s.store.Receipts().ListByUserAndDateRange(ctx, user.ID, *start, *end)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}

	totals := make(map[string]decimal.Decimal)
	for _, r := range receipts {
		category := extraction.StatsCategory(r.Category)
		totals[category] = totals[category].Add(r.TotalOrZero())
	}

	categories := make([]dto.CategorySpending, 0, len(totals))
	totalSpent := decimal.Zero
	for category, amount := range totals {
		categories = append(categories, dto.CategorySpending{Category: category, Amount: amount})
		totalSpent = totalSpent.Add(amount)
	}
	sort.Slice(categories, func(i, j int) bool {
		if c := categories[i].Amount.Cmp(categories[j].Amount); c != 0 {
			return c > 0
		}
		return categories[i].Category < categories[j].Category
	})

	return &dto.CategoryStatsResponse{
		MonthStart: start.Format(time.DateOnly),
		MonthEnd:   end.Format(time.DateOnly),
		Currency:   statsCurrency,
		TotalSpent: totalSpent,
		Categories: categories,
	}, nil
}

// ByDateRange returns receipts dated within [start, end], latest date first.
func (s *StatsService) ByDateRange(ctx context.Context, start, end *time.Time, principal string) ([]*dto.ReceiptResponse, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}

	user, err := resolveUser(ctx, s.store.Users(), principal)
	if err != nil {
		return nil, err
	}

	receipts, err := s.store.Receipts().ListByUserAndDateRange(ctx, user.ID, *start, *end)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}

	sort.SliceStable(receipts, func(i, j int) bool {
		a, b := receipts[i].ReceiptDate, receipts[j].ReceiptDate
		if a != nil && b != nil && !a.Equal(*b) {
			return a.After(*b)
		}
		return receipts[i].ID > receipts[j].ID
	})
	return dto.NewReceiptResponses(receipts), nil
}
