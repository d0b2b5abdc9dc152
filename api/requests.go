package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rsolheim/unitbooking/internal/repository"
	"github.com/rsolheim/unitbooking/internal/service/request"
)

type RequestHandler struct {
	service request.RequestUseCase
}

type submitResponse struct {
	RequestID int64   `json:"request_id"`
	LineIDs   []int64 `json:"line_ids"`
}

type decideRequest struct {
	Action string `json:"action"`
}

type decideResponse struct {
	LineID    int64  `json:"line_id"`
	Status    string `json:"status"`
	BookingID *int64 `json:"booking_id,omitempty"`
}

type lineResponse struct {
	LineID           int64  `json:"line_id"`
	RequestID        int64  `json:"request_id"`
	UnitID           int64  `json:"unit_id"`
	UnitCode         string `json:"unit_code"`
	TenantName       string `json:"tenant_name,omitempty"`
	Company          string `json:"company,omitempty"`
	Comment          string `json:"comment,omitempty"`
	CheckinDate      string `json:"checkin_date"`
	CheckoutDate     string `json:"checkout_date"`
	Status           string `json:"status"`
	RequestedByEmail string `json:"requested_by_email,omitempty"`
	RequesterEmail   string `json:"requester_email,omitempty"`
	RequesterPhone   string `json:"requester_phone,omitempty"`
	CreatedAt        string `json:"created_at"`
	DecidedAt        string `json:"decided_at,omitempty"`
}

type listingResponse struct {
	PendingCount int            `json:"pending_count"`
	Lines        []lineResponse `json:"lines"`
}

func NewRequestHandler(service request.RequestUseCase) *RequestHandler {
	return &RequestHandler{service: service}
}

func (h *RequestHandler) Register(router *gin.RouterGroup) {
	router.POST("/requests", h.submit)
	router.GET("/requests", h.list)
	router.POST("/requests/lines/:id/decision", h.decide)
}

func (h *RequestHandler) submit(c *gin.Context) {
	var req request.SubmitInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, lines, err := h.service.Submit(c.Request.Context(), Caller(c), req)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := submitResponse{RequestID: created.ID, LineIDs: make([]int64, 0, len(lines))}
	for _, ln := range lines {
		resp.LineIDs = append(resp.LineIDs, ln.ID)
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *RequestHandler) decide(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req decideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := h.service.Decide(c.Request.Context(), Caller(c), request.DecideInput{LineID: id, Action: req.Action})
	if err != nil {
		writeError(c, err)
		return
	}

	resp := decideResponse{LineID: outcome.Line.ID, Status: string(outcome.Line.Status)}
	if outcome.Booking != nil {
		resp.BookingID = &outcome.Booking.ID
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RequestHandler) list(c *gin.Context) {
	listing, err := h.service.ListRecent(c.Request.Context(), Caller(c))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := listingResponse{PendingCount: listing.PendingCount, Lines: make([]lineResponse, 0, len(listing.Lines))}
	for _, v := range listing.Lines {
		resp.Lines = append(resp.Lines, toLineResponse(v))
	}
	c.JSON(http.StatusOK, resp)
}

func toLineResponse(v repository.RequestLineView) lineResponse {
	resp := lineResponse{
		LineID:           v.Line.ID,
		RequestID:        v.Line.RequestID,
		UnitID:           v.Line.UnitID,
		UnitCode:         v.UnitCode,
		TenantName:       v.Line.TenantName,
		Company:          v.Line.Company,
		Comment:          v.Line.Comment,
		CheckinDate:      v.Line.CheckinDate,
		CheckoutDate:     v.Line.CheckoutDate,
		Status:           string(v.Line.Status),
		RequestedByEmail: v.RequestedByEmail,
		RequesterEmail:   v.RequesterEmail,
		RequesterPhone:   v.RequesterPhone,
		CreatedAt:        v.Line.CreatedAt.Format(time.RFC3339),
	}
	if v.Line.DecidedAt != nil {
		resp.DecidedAt = v.Line.DecidedAt.Format(time.RFC3339)
	}
	return resp
}
