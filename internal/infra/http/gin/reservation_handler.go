package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
	reservationapp "staybook/internal/app/handlers/reservation"
	"staybook/internal/app/queries"
	domainlisting "staybook/internal/domain/listing"
	domainreservation "staybook/internal/domain/reservation"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

type ReservationHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createReservationRequest struct {
	ListingID  string       `json:"listing_id"`
	StartDate  time.Time    `json:"start_date"`
	EndDate    time.Time    `json:"end_date"`
	TotalPrice dto.MoneyDTO `json:"total_price"`
}

func (h ReservationHandler) Create(c *gin.Context) {
	user, ok := requireGuest(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	quoted, err := money.New(req.TotalPrice.Amount, req.TotalPrice.Currency)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := reservationapp.CreateReservationCommand{
		CommandID:       uuid.NewString(),
		ListingID:       req.ListingID,
		GuestID:         user.ID,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		QuotedTotal:     quoted,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[reservationapp.CreateReservationCommand, *reservationapp.CreateReservationResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.respondReservationError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h ReservationHandler) Cancel(c *gin.Context) {
	user, ok := requireGuest(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	cmd := reservationapp.CancelReservationCommand{
		ReservationID: c.Param("id"),
		GuestID:       user.ID,
	}
	result, err := commands.Dispatch[reservationapp.CancelReservationCommand, *reservationapp.CancelReservationResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.respondReservationError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationHandler) ListTrips(c *gin.Context) {
	user, ok := requireGuest(c)
	if !ok {
		return
	}
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	query := reservationapp.ListTripsQuery{GuestID: user.ID}
	result, err := queries.Ask[reservationapp.ListTripsQuery, dto.TripCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("trips query failed", "error", err, "user_id", user.ID)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load trips"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationHandler) respondReservationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, reservationapp.ErrDatesUnavailable):
		c.JSON(http.StatusConflict, gin.H{"error": "dates no longer available"})
	case errors.Is(err, domainreservation.ErrTotalMismatch):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "quoted total does not match the current price"})
	case errors.Is(err, domainreservation.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": "reservation already cancelled"})
	case errors.Is(err, reservationapp.ErrNotReservationOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "not your reservation"})
	case errors.Is(err, domainreservation.ErrNotFound),
		errors.Is(err, domainlisting.ErrListingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, daterange.ErrReversedRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		if h.Logger != nil {
			h.Logger.Error("reservation command failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

var _ ReservationHTTP = (*ReservationHandler)(nil)
