package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rsolheim/unitbooking/internal/domain"
	"github.com/rsolheim/unitbooking/internal/service/booking"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type bookingResponse struct {
	ID           int64  `json:"id"`
	UnitID       int64  `json:"unit_id"`
	TenantName   string `json:"tenant_name,omitempty"`
	Company      string `json:"company,omitempty"`
	TenantEmail  string `json:"tenant_email,omitempty"`
	TenantPhone  string `json:"tenant_phone,omitempty"`
	CheckinDate  string `json:"checkin_date"`
	CheckoutDate string `json:"checkout_date"`
	Status       string `json:"status"`
}

type cancelResponse struct {
	ID               int64  `json:"id"`
	Status           string `json:"status"`
	AlreadyCancelled bool   `json:"already_cancelled"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/bookings", h.create)
	router.GET("/bookings/:id", h.get)
	router.PUT("/bookings/:id", h.update)
	router.DELETE("/bookings/:id", h.cancel)
	router.GET("/units", h.listUnits)
	router.GET("/units/available", h.listAvailable)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req booking.CreateBookingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), Caller(c), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toBookingResponse(created))
}

func (h *BookingHandler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	b, err := h.service.GetBooking(c.Request.Context(), Caller(c), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req booking.UpdateBookingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.BookingID = id

	updated, err := h.service.UpdateBooking(c.Request.Context(), Caller(c), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toBookingResponse(updated))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	result, err := h.service.CancelBooking(c.Request.Context(), Caller(c), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, cancelResponse{
		ID:               result.Booking.ID,
		Status:           string(result.Booking.Status),
		AlreadyCancelled: result.AlreadyCancelled,
	})
}

func (h *BookingHandler) listUnits(c *gin.Context) {
	units, err := h.service.ListUnits(c.Request.Context(), Caller(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, units)
}

func (h *BookingHandler) listAvailable(c *gin.Context) {
	checkin := c.Query("checkin_date")
	checkout := c.Query("checkout_date")

	units, err := h.service.ListAvailableUnits(c.Request.Context(), Caller(c), checkin, checkout)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, units)
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		ID:           b.ID,
		UnitID:       b.UnitID,
		TenantName:   b.TenantName,
		Company:      b.Company,
		TenantEmail:  b.TenantEmail,
		TenantPhone:  b.TenantPhone,
		CheckinDate:  b.CheckinDate,
		CheckoutDate: b.CheckoutDate,
		Status:       string(b.Status),
	}
}
