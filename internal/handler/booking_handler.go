package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Druv08/smart-scheduler/internal/dto"
	"github.com/Druv08/smart-scheduler/internal/models"
	"github.com/Druv08/smart-scheduler/internal/service"
	appErrors "github.com/Druv08/smart-scheduler/pkg/errors"
	"github.com/Druv08/smart-scheduler/pkg/response"
)

// BookingHandler exposes timetable booking endpoints.
type BookingHandler struct {
	bookings  *service.BookingService
	conflicts *service.ConflictService
}

// NewBookingHandler constructs a booking handler.
func NewBookingHandler(bookings *service.BookingService, conflicts *service.ConflictService) *BookingHandler {
	return &BookingHandler{bookings: bookings, conflicts: conflicts}
}

// List godoc
// @Summary List timetable entries
// @Tags Timetable
// @Produce json
// @Param course_id query int false "Filter by course"
// @Param room_id query int false "Filter by room"
// @Param day query string false "Filter by day of week"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /timetable [get]
func (h *BookingHandler) List(c *gin.Context) {
	var filter models.BookingFilter
	if courseID, err := strconv.ParseInt(c.DefaultQuery("course_id", "0"), 10, 64); err == nil {
		filter.CourseID = courseID
	}
	if roomID, err := strconv.ParseInt(c.DefaultQuery("room_id", "0"), 10, 64); err == nil {
		filter.RoomID = roomID
	}
	filter.DayOfWeek = c.Query("day")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	entries, total, err := h.bookings.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// Get godoc
// @Summary Get one timetable entry
// @Tags Timetable
// @Produce json
// @Param id path int true "Booking ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	entry, err := h.bookings.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Create godoc
// @Summary Book a timetable slot
// @Tags Timetable
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateBookingRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetable [post]
func (h *BookingHandler) Create(c *gin.Context) {
	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.bookings.Create(c.Request.Context(), req)
	if err != nil {
		conflictError(c, err)
		return
	}
	response.Created(c, entry)
}

// CheckConflict godoc
// @Summary Dry-run a booking against the timetable
// @Tags Timetable
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CheckConflictRequest true "Candidate slot"
// @Success 200 {object} response.Envelope
// @Router /timetable/check [post]
func (h *BookingHandler) CheckConflict(c *gin.Context) {
	var req dto.CheckConflictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.conflicts.Check(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Delete godoc
// @Summary Remove a timetable entry
// @Tags Timetable
// @Produce json
// @Security BearerAuth
// @Param id path int true "Booking ID"
// @Success 204
// @Router /timetable/{id} [delete]
func (h *BookingHandler) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.bookings.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// conflictError renders conflict rejections with the conflict payload in the
// envelope meta so clients can show the occupying entry.
func conflictError(c *gin.Context, err error) {
	var conflict *models.BookingConflictError
	if errors.As(err, &conflict) {
		appErr := appErrors.FromError(err)
		c.Header("Cache-Control", "no-store")
		c.JSON(appErr.Status, response.Envelope{
			Error: appErr,
			Meta: map[string]interface{}{
				"conflict": conflict,
			},
		})
		return
	}
	response.Error(c, err)
}
