package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ai-receipt/internal/dto"
	"ai-receipt/internal/extraction"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Parser interface {
	ParseFromImage(ctx context.Context, imageID *int64, principal string) (*dto.ReceiptResponse, error)
}

type Receipts interface {
	ListByUser(ctx context.Context, principal string) ([]*dto.ReceiptResponse, error)
	GetByID(ctx context.Context, receiptID int64, principal string) (*dto.ReceiptResponse, error)
	UpdateDetails(ctx context.Context, receiptID int64, req *dto.UpdateReceiptRequest, principal string) (*dto.ReceiptResponse, error)
	UpdateReviewStatus(ctx context.Context, receiptID int64, reviewed *bool, principal string) (*dto.ReceiptResponse, error)
}

type Stats interface {
	MonthlyStats(ctx context.Context, principal string) (*dto.MonthlyStatsResponse, error)
	CategoryStats(ctx context.Context, principal string, start, end *time.Time) (*dto.CategoryStatsResponse, error)
	ByDateRange(ctx context.Context, start, end *time.Time, principal string) ([]*dto.ReceiptResponse, error)
}

type Deleter interface {
	DeleteOne(ctx context.Context, receiptID int64, principal string) (*dto.DeleteReceiptsResponse, error)
	DeleteMany(ctx context.Context, ids []*int64, principal string) (*dto.DeleteReceiptsResponse, error)
}

type ReceiptHandler struct {
	parser   Parser
	receipts Receipts
	stats    Stats
	deleter  Deleter
	validate *validator.Validate
	logger   *zap.Logger
}

func NewReceiptHandler(
	parser Parser,
	receipts Receipts,
	stats Stats,
	deleter Deleter,
	validate *validator.Validate,
	logger *zap.Logger,
) *ReceiptHandler {
	return &ReceiptHandler{
		parser:   parser,
		receipts: receipts,
		stats:    stats,
		deleter:  deleter,
		validate: validate,
		logger:   logger,
	}
}

// ParseReceipt godoc
// @Summary Parse a stored receipt image
// @Description Runs an uploaded image through the vision model and saves the extracted receipt
// @Tags receipts
// @Accept json
// @Produce json
// @Param request body dto.ParseReceiptRequest true "Image to parse"
// @Security Bearer
// @Success 200 {object} dto.ReceiptResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /api/v1/receipts/parse [post]
func (h *ReceiptHandler) ParseReceipt(c *fiber.Ctx) error {
	principal, ok := requirePrincipal(c)
	if !ok {
		return unauthorized(c)
	}

	var req dto.ParseReceiptRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.parser.ParseFromImage(c.UserContext(), req.ImageID, principal)
	if err != nil {
		return respondError(c, h.logger, "Failed to parse receipt", err)
	}
	return c.JSON(resp)
}

// ListMyReceipts godoc
// @Summary List the caller's receipts
// @Tags receipts
// @Produce json
// @Security Bearer
// @Success 200 {array} dto.ReceiptResponse
// @Failure 401 {object} map[string]string
// @Router /api/v1/receipts/me [get]
func (h *ReceiptHandler) ListMyReceipts(c *fiber.Ctx) error {
	principal, ok := requirePrincipal(c)
	if !ok {
		return unauthorized(c)
	}

	resp, err := h.receipts.ListByUser(c.UserContext(), principal)
	if err != nil {
		return respondError(c, h.logger, "Failed to list receipts", err)
	}
	return c.JSON(resp)
}

// MonthlyStats godoc
// @Summary Spending totals for the current month
// @Tags stats
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.MonthlyStatsResponse
// @Failure 401 {object} map[string]string
// @Router /api/v1/receipts/me/stats [get]
func (h *ReceiptHandler) MonthlyStats(c *fiber.Ctx) error {
	principal, ok := requirePrincipal(c)
	if !ok {
		return unauthorized(c)
	}

	resp, err := h.stats.MonthlyStats(c.UserContext(), principal)
	if err != nil {
		return respondError(c, h.logger, "Failed to compute monthly stats", err)
	}
	return c.JSON(resp)
}

// CategoryStats godoc
// @Summary Spending by category
// @Description Defaults to the current month when no range is given
// @Tags stats
// @Produce json
// @Param start query string false "Range start (YYYY-MM-DD)"
// @Param end query string false "Range end (YYYY-MM-DD)"
// @Security Bearer
// @Success 200 {object} dto.CategoryStatsResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/v1/receipts/me/stats/categories [get]
func (h *ReceiptHandler) CategoryStats(c *fiber.Ctx) error {
	principal, ok := requirePrincipal(c)
	if !ok {
		return unauthorized(c)
	}

	start, end, err := h.dateRange(c)
	if err != nil {
		return badRequest(c, invalidDateMessage)
	}

	resp, err := h.stats.CategoryStats(c.UserContext(), principal, start, end)
	if err != nil {
		return respondError(c, h.logger, "Failed to compute category stats", err)
	}
	return c.JSON(resp)
}

// ReceiptsByDateRange godoc
// @Summary Receipts dated within a range
// @Tags receipts
// @Produce json
// @Param start query string true "Range start (YYYY-MM-DD)"
// @Param end query string true "Range end (YYYY-MM-DD)"
// @Security Bearer
// @Success 200 {array} dto.ReceiptResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/v1/receipts/me/range [get]
func (h *ReceiptHandler) ReceiptsByDateRange(c *fiber.Ctx) error {
	principal, ok := requirePrincipal(c)
	if !ok {
		return unauthorized(c)
	}

	start, end, err := h.dateRange(c)
	if err != nil {
		return badRequest(c, invalidDateMessage)
	}

	resp, err := h.stats.ByDateRange(c.UserContext(), start, end, principal)
	if err != nil {
		return respondError(c, h.logger, "Failed to list receipts by date", err)
	}
	return c.JSON(resp)
}

// GetReceipt godoc
// @Summary Get one receipt
// @Tags receipts
// @Produce json
// @Param id path int true "Receipt ID"
// @Security Bearer
// @Success 200 {object} dto.ReceiptResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/receipts/{id} [get]
func (h *ReceiptHandler) GetReceipt(c *fiber.Ctx) error {
	principal, ok := requirePrincipal(c)
	if !ok {
		return unauthorized(c)
	}

	id, err := receiptID(c)
	if err != nil {
		return badRequest(c, "Invalid receipt ID")
	}

	resp, err := h.receipts.GetByID(c.UserContext(), id, principal)
	if err != nil {
		return respondError(c, h.logger, "Failed to get receipt", err)
	}
	return c.JSON(resp)
}

// UpdateReceipt godoc
// @Summary Edit a receipt
// @Description Partial update; a present items list replaces all items
// @Tags receipts
// @Accept json
// @Produce json
// @Param id path int true "Receipt ID"
// @Param request body dto.UpdateReceiptRequest true "Fields to change"
// @Security Bearer
// @Success 200 {object} dto.ReceiptResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/receipts/{id} [put]
func (h *ReceiptHandler) UpdateReceipt(c *fiber.Ctx) error {
	principal, ok := requirePrincipal(c)
	if !ok {
		return unauthorized(c)
	}

	id, err := receiptID(c)
	if err != nil {
		return badRequest(c, "Invalid receipt ID")
	}

	var req dto.UpdateReceiptRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return badRequest(c, validationMessage(err))
	}

	resp, err := h.receipts.UpdateDetails(c.UserContext(), id, &req, principal)
	if err != nil {
		return respondError(c, h.logger, "Failed to update receipt", err)
	}
	return c.JSON(resp)
}

// UpdateReviewStatus godoc
// @Summary Mark a receipt as reviewed or not
// @Tags receipts
// @Accept json
// @Produce json
// @Param id path int true "Receipt ID"
// @Param request body dto.ReviewReceiptRequest true "Review flag"
// @Security Bearer
// @Success 200 {object} dto.ReceiptResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/receipts/{id}/review [put]
func (h *ReceiptHandler) UpdateReviewStatus(c *fiber.Ctx) error {
	principal, ok := requirePrincipal(c)
	if !ok {
		return unauthorized(c)
	}

	id, err := receiptID(c)
	if err != nil {
		return badRequest(c, "Invalid receipt ID")
	}

	var req dto.ReviewReceiptRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.receipts.UpdateReviewStatus(c.UserContext(), id, req.Reviewed, principal)
	if err != nil {
		return respondError(c, h.logger, "Failed to update review status", err)
	}
	return c.JSON(resp)
}

// DeleteReceipt godoc
// @Summary Delete one receipt
// @Description Also removes its image when no other receipt uses it
// @Tags receipts
// @Produce json
// @Param id path int true "Receipt ID"
// @Security Bearer
// @Success 200 {object} dto.DeleteReceiptsResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /api/v1/receipts/{id} [delete]
func (h *ReceiptHandler) DeleteReceipt(c *fiber.Ctx) error {
	principal, ok := requirePrincipal(c)
	if !ok {
		return unauthorized(c)
	}

	id, err := receiptID(c)
	if err != nil {
		return badRequest(c, "Invalid receipt ID")
	}

	resp, err := h.deleter.DeleteOne(c.UserContext(), id, principal)
	if err != nil {
		return respondError(c, h.logger, "Failed to delete receipt", err)
	}
	return c.JSON(resp)
}

// DeleteReceipts godoc
// @Summary Delete several receipts
// @Description All or nothing: any unknown id fails the whole request
// @Tags receipts
// @Accept json
// @Produce json
// @Param request body dto.DeleteReceiptsRequest true "Receipt IDs"
// @Security Bearer
// @Success 200 {object} dto.DeleteReceiptsResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /api/v1/receipts [delete]
func (h *ReceiptHandler) DeleteReceipts(c *fiber.Ctx) error {
	principal, ok := requirePrincipal(c)
	if !ok {
		return unauthorized(c)
	}

	var req dto.DeleteReceiptsRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.deleter.DeleteMany(c.UserContext(), req.IDs, principal)
	if err != nil {
		return respondError(c, h.logger, "Failed to delete receipts", err)
	}
	return c.JSON(resp)
}

const invalidDateMessage = "Invalid date format. Use YYYY-MM-DD"

var errBadDate = errors.New("bad date")

// dateRange reads the optional start and end query parameters.
func (h *ReceiptHandler) dateRange(c *fiber.Ctx) (*time.Time, *time.Time, error) {
	var q dto.DateRangeQuery
	if err := c.QueryParser(&q); err != nil {
		return nil, nil, errBadDate
	}
	if err := h.validate.Struct(&q); err != nil {
		return nil, nil, errBadDate
	}

	start, err := optionalDate(q.Start)
	if err != nil {
		return nil, nil, errBadDate
	}
	end, err := optionalDate(q.End)
	if err != nil {
		return nil, nil, errBadDate
	}
	return start, end, nil
}

func optionalDate(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	d, err := extraction.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func receiptID(c *fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("id"), 10, 64)
}

// parseBody decodes a JSON body; an empty body leaves out untouched.
func parseBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	return c.BodyParser(out)
}

func requirePrincipal(c *fiber.Ctx) (string, bool) {
	principal := strings.TrimSpace(getPrincipal(c))
	if principal == "" || principal == "anonymousUser" {
		return "", false
	}
	return principal, true
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "Unauthorized",
	})
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
	return "Invalid request body"
}
