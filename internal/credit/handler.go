package credit

import (
	"errors"
	"net/http"
	"strconv"

	"tutorbook/internal/api"
	"tutorbook/internal/auth"
	"tutorbook/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Handler struct {
	repo *Repository
}

func NewHandler(db *sqlx.DB) *Handler {
	return &Handler{
		repo: NewRepository(db),
	}
}

// Adjust godoc
// @Summary      Adjust a user's session balance
// @Description  Admin-only: credits or debits sessions and appends a ledger entry atomically. An idempotency key makes retries safe.
// @Tags         admin,credits
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      credit.AdjustRequest  true  "Adjustment payload"
// @Success      200      {object}  credit.AdjustResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /admin/credits/adjustments [post]
func (h *Handler) Adjust(c *gin.Context) {
	adminID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	var idempotencyKey *string
	if req.IdempotencyKey != "" {
		if _, err := uuid.Parse(req.IdempotencyKey); err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "idempotency_key must be a UUID"})
			return
		}
		idempotencyKey = &req.IdempotencyKey
	}

	result, err := h.repo.Adjust(
		c.Request.Context(),
		req.UserID,
		req.Amount,
		req.Type,
		req.Category,
		req.Reason,
		&adminID,
		idempotencyKey,
	)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "User not found"})
		case errors.Is(err, ErrInsufficientBalance):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Insufficient session balance"})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to adjust balance"})
		}
		return
	}

	metrics.RecordCreditAdjustment(req.Type, req.Category)

	c.JSON(http.StatusOK, result)
}

// GetMyHistory godoc
// @Summary      My credit history
// @Description  Returns the authenticated user's ledger entries, most recent first.
// @Tags         credits
// @Security     BearerAuth
// @Produce      json
// @Param        limit   query     int  false  "Page size (default 50)"
// @Param        offset  query     int  false  "Offset"
// @Success      200     {array}   credit.Entry
// @Failure      500     {object}  api.ErrorResponse
// @Router       /credits/history [get]
func (h *Handler) GetMyHistory(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	entries, err := h.repo.GetHistory(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch credit history"})
		return
	}

	c.JSON(http.StatusOK, entries)
}

// GetUserHistory godoc
// @Summary      Credit history for a user
// @Description  Admin-only: returns any user's ledger entries, most recent first.
// @Tags         admin,credits
// @Security     BearerAuth
// @Produce      json
// @Param        userID  path      int  true   "User ID"
// @Param        limit   query     int  false  "Page size (default 50)"
// @Param        offset  query     int  false  "Offset"
// @Success      200     {array}   credit.Entry
// @Failure      400     {object}  api.ErrorResponse
// @Failure      500     {object}  api.ErrorResponse
// @Router       /admin/users/{userID}/credits/history [get]
func (h *Handler) GetUserHistory(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid user ID"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	entries, err := h.repo.GetHistory(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch credit history"})
		return
	}

	c.JSON(http.StatusOK, entries)
}
