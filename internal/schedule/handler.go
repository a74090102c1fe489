package schedule

import (
	"errors"
	"net/http"
	"strconv"

	"tutorbook/internal/api"
	"tutorbook/internal/metrics"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{
		service: service,
	}
}

// GetAvailability godoc
// @Summary      Slot availability for a date
// @Description  Returns the open hours, capacities and free slot numbers for a calendar date.
// @Tags         availability
// @Security     BearerAuth
// @Produce      json
// @Param        date  query     string  true  "Date (YYYY-MM-DD)"
// @Success      200   {array}   schedule.HourAvailability
// @Failure      400   {object}  api.ErrorResponse
// @Failure      500   {object}  api.ErrorResponse
// @Router       /availability [get]
func (h *Handler) GetAvailability(c *gin.Context) {
	dateStr := c.Query("date")
	if dateStr == "" {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "date query parameter required"})
		return
	}

	date, err := ParseDate(dateStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid date, use YYYY-MM-DD"})
		return
	}

	slots, err := h.service.Availability(c.Request.Context(), date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to compute availability"})
		return
	}

	c.JSON(http.StatusOK, slots)
}

// BlockDate godoc
// @Summary      Block a date
// @Description  Admin-only: suppresses all availability for a date. Blocking an already-blocked date updates its reason.
// @Tags         admin,schedule
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      schedule.BlockDateRequest  true  "Date to block"
// @Success      201      {object}  schedule.BlockedDate
// @Failure      400      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /admin/blocked-dates [post]
func (h *Handler) BlockDate(c *gin.Context) {
	var req BlockDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	date, err := ParseDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid date, use YYYY-MM-DD"})
		return
	}

	blocked, err := h.service.Block(c.Request.Context(), date, req.Reason)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to block date"})
		return
	}

	if dates, err := h.service.ListBlocked(c.Request.Context()); err == nil {
		metrics.BlockedDatesActive.Set(float64(len(dates)))
	}

	c.JSON(http.StatusCreated, blocked)
}

// UnblockDate godoc
// @Summary      Unblock a date
// @Description  Admin-only: removes a date block. Unblocking a date that is not blocked succeeds.
// @Tags         admin,schedule
// @Security     BearerAuth
// @Produce      json
// @Param        date  path      string  true  "Date (YYYY-MM-DD)"
// @Success      200   {object}  api.MessageResponse
// @Failure      400   {object}  api.ErrorResponse
// @Failure      500   {object}  api.ErrorResponse
// @Router       /admin/blocked-dates/{date} [delete]
func (h *Handler) UnblockDate(c *gin.Context) {
	date, err := ParseDate(c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid date, use YYYY-MM-DD"})
		return
	}

	if err := h.service.Unblock(c.Request.Context(), date); err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to unblock date"})
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Date unblocked"})
}

// ListBlockedDates godoc
// @Summary      List blocked dates
// @Tags         admin,schedule
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   schedule.BlockedDate
// @Failure      500  {object}  api.ErrorResponse
// @Router       /admin/blocked-dates [get]
func (h *Handler) ListBlockedDates(c *gin.Context) {
	dates, err := h.service.ListBlocked(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch blocked dates"})
		return
	}

	c.JSON(http.StatusOK, dates)
}

// CreateCustomSession godoc
// @Summary      Create a custom session
// @Description  Admin-only: adds an extra bookable hour range with its own capacity for a specific date.
// @Tags         admin,schedule
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      schedule.CreateCustomSessionRequest  true  "Custom session payload"
// @Success      201      {object}  schedule.CustomSession
// @Failure      400      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /admin/custom-sessions [post]
func (h *Handler) CreateCustomSession(c *gin.Context) {
	var req CreateCustomSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	session, err := h.service.CreateCustomSession(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidDate), errors.Is(err, ErrInvalidHourRange):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create custom session"})
		}
		return
	}

	c.JSON(http.StatusCreated, session)
}

// DeleteCustomSession godoc
// @Summary      Delete a custom session
// @Tags         admin,schedule
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Custom session ID"
// @Success      200  {object}  api.MessageResponse
// @Failure      400  {object}  api.ErrorResponse
// @Failure      404  {object}  api.ErrorResponse
// @Failure      500  {object}  api.ErrorResponse
// @Router       /admin/custom-sessions/{id} [delete]
func (h *Handler) DeleteCustomSession(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid custom session ID"})
		return
	}

	if err := h.service.DeleteCustomSession(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrCustomSessionNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Custom session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to delete custom session"})
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Custom session deleted"})
}

// ListCustomSessions godoc
// @Summary      List custom sessions
// @Tags         admin,schedule
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   schedule.CustomSession
// @Failure      500  {object}  api.ErrorResponse
// @Router       /admin/custom-sessions [get]
func (h *Handler) ListCustomSessions(c *gin.Context) {
	sessions, err := h.service.ListCustomSessions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch custom sessions"})
		return
	}

	c.JSON(http.StatusOK, sessions)
}
