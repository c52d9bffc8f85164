package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/dto"
	availabilityapp "staybook/internal/app/handlers/availability"
	"staybook/internal/app/queries"
)

type AvailabilityHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

// BookedDates serves the disabled-date set the selection calendar consumes.
func (h AvailabilityHandler) BookedDates(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	query := availabilityapp.GetBookedDatesQuery{ListingID: c.Param("id")}
	result, err := queries.Ask[availabilityapp.GetBookedDatesQuery, dto.BookedDates](c.Request.Context(), h.Queries, query)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("booked dates query failed", "error", err, "listing_id", query.ListingID)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load booked dates"})
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AvailabilityHTTP = (*AvailabilityHandler)(nil)
