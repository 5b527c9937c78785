package dto

import "github.com/shopspring/decimal"

type MonthlyStatsResponse struct {
	TotalSpentThisMonth        decimal.Decimal `json:"total_spent_this_month" swaggertype:"string"`
	ReceiptsProcessedThisMonth int64           `json:"receipts_processed_this_month"`
}

type CategorySpending struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount" swaggertype:"string"`
}

type CategoryStatsResponse struct {
	MonthStart string             `json:"month_start"`
	MonthEnd   string             `json:"month_end"`
	Currency   string             `json:"currency"`
	TotalSpent decimal.Decimal    `json:"total_spent" swaggertype:"string"`
	Categories []CategorySpending `json:"categories"`
}

// DateRangeQuery carries optional YYYY-MM-DD bounds from the query string.
type DateRangeQuery struct {
	Start string `query:"start" validate:"omitempty,datetime=2006-01-02"`
	End   string `query:"end" validate:"omitempty,datetime=2006-01-02"`
}
