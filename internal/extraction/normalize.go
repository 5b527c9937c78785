package extraction

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultCurrency = "USD"
	OtherCategory   = "Other"

	dateLayout = "2006-01-02"
)

// Categories is the closed set of spending categories, in canonical casing.
var Categories = []string{
	"Housing",
	"Utilities",
	"Food",
	"Transportation",
	"Shopping",
	"Health",
	"Entertainment",
	"Subscriptions",
	"Travel",
	"Education",
}

var canonicalCategories = func() map[string]string {
	m := make(map[string]string, len(Categories))
	for _, c := range Categories {
		m[strings.ToLower(c)] = c
	}
	return m
}()

// NormalizeMoney keeps only ASCII digits, '.' and '-' and parses the rest as
// a base-10 decimal. Anything unparseable yields an invalid NullDecimal.
// Thousands separators are assumed to be commas: "1.234,56" becomes 1.23456.
func NormalizeMoney(raw *string) decimal.NullDecimal {
	if raw == nil {
		return decimal.NullDecimal{}
	}

	var b strings.Builder
	for _, r := range *raw {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" || cleaned == "-" || cleaned == "." {
		return decimal.NullDecimal{}
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// NormalizeDate accepts YYYY-MM-DD or an ISO-8601 local date-time and
// returns the calendar date at midnight UTC. Values carrying a zone or
// offset are rejected.
func NormalizeDate(raw *string) *time.Time {
	if raw == nil {
		return nil
	}
	value := strings.TrimSpace(*raw)
	if value == "" {
		return nil
	}

	for _, layout := range []string{dateLayout, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, value); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	return nil
}

// ParseDate parses a strict YYYY-MM-DD date.
func ParseDate(value string) (time.Time, error) {
	return time.Parse(dateLayout, strings.TrimSpace(value))
}

// FormatDate renders d as YYYY-MM-DD, or nil for a missing date.
func FormatDate(d *time.Time) *string {
	if d == nil {
		return nil
	}
	s := d.Format(dateLayout)
	return &s
}

func NormalizeCurrency(raw *string) string {
	if raw == nil {
		return DefaultCurrency
	}
	value := strings.TrimSpace(*raw)
	if value == "" {
		return DefaultCurrency
	}
	return strings.ToUpper(value)
}

func NormalizeCategory(raw *string) string {
	if raw == nil {
		return OtherCategory
	}
	if c, ok := canonicalCategories[strings.ToLower(strings.TrimSpace(*raw))]; ok {
		return c
	}
	return OtherCategory
}

// StatsCategory is the grouping key used by spending stats: the stored
// category trimmed, blank treated as Other.
func StatsCategory(category string) string {
	if c := strings.TrimSpace(category); c != "" {
		return c
	}
	return OtherCategory
}

func TrimToNull(raw *string) *string {
	if raw == nil {
		return nil
	}
	value := strings.TrimSpace(*raw)
	if value == "" {
		return nil
	}
	return &value
}

// RoundMoney rounds a present amount to cents.
func RoundMoney(d decimal.NullDecimal) decimal.NullDecimal {
	if !d.Valid {
		return d
	}
	return decimal.NewNullDecimal(d.Decimal.Round(2))
}

// RoundQuantity rounds a present quantity to three places.
func RoundQuantity(d decimal.NullDecimal) decimal.NullDecimal {
	if !d.Valid {
		return d
	}
	return decimal.NewNullDecimal(d.Decimal.Round(3))
}
