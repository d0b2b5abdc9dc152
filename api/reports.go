package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rsolheim/unitbooking/internal/service/report"
)

type ReportHandler struct {
	service report.ReportUseCase
}

func NewReportHandler(service report.ReportUseCase) *ReportHandler {
	return &ReportHandler{service: service}
}

func (h *ReportHandler) Register(router *gin.RouterGroup) {
	router.GET("/reports/overview", h.overview)
	router.GET("/reports/cleaning", h.cleaning)
	router.GET("/reports/bookings", h.bookings)
}

func (h *ReportHandler) overview(c *gin.Context) {
	rows, err := h.service.UnitOverview(c.Request.Context(), Caller(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *ReportHandler) cleaning(c *gin.Context) {
	rows, err := h.service.CleaningPlan(c.Request.Context(), Caller(c), c.Query("start"), c.Query("end"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *ReportHandler) bookings(c *gin.Context) {
	rows, err := h.service.BookingsReport(c.Request.Context(), Caller(c), c.Query("start"), c.Query("end"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": rows})
}
