package availability

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"venuebook/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/venues/open", h.OpenVenues)
	rg.GET("/venues/:id/open-now", h.VenueOpenNow)
	rg.GET("/venues/:id/next-opening", h.VenueNextOpening)
	rg.GET("/venues/:id/open-in-range", h.VenueOpenInRange)
}

func (h *Handler) OpenVenues(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	venues, err := h.service.OpenVenues(c.Request.Context(), limit, offset)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, venues)
}

func (h *Handler) VenueOpenNow(c *gin.Context) {
	id, ok := venueID(c)
	if !ok {
		return
	}

	open, err := h.service.VenueOpenNow(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"venue_id": id, "open": open})
}

func (h *Handler) VenueNextOpening(c *gin.Context) {
	id, ok := venueID(c)
	if !ok {
		return
	}

	next, err := h.service.VenueNextOpening(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"venue_id": id, "next_opening": next})
}

func (h *Handler) VenueOpenInRange(c *gin.Context) {
	id, ok := venueID(c)
	if !ok {
		return
	}
	start, err := time.Parse("2006-01-02", c.Query("start"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "start must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse("2006-01-02", c.Query("end"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "end must be YYYY-MM-DD")
		return
	}

	open, err := h.service.VenueOpenInRange(c.Request.Context(), id, start, end)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"venue_id": id, "open": open})
}

func venueID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid venue ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request")
	case errors.Is(err, ErrNoAvailability):
		response.Error(c, http.StatusNotFound, "NO_AVAILABILITY", "No availability windows configured")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error")
	}
}
