package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rsolheim/unitbooking/api"
	"github.com/rsolheim/unitbooking/config"
	"github.com/rsolheim/unitbooking/internal/service/booking"
	"github.com/rsolheim/unitbooking/internal/service/report"
	"github.com/rsolheim/unitbooking/internal/service/request"
)

// Run starts the HTTP server and blocks until the context is canceled
// or the server fails.
func Run(ctx context.Context, cfg *config.Config, bookingSvc booking.BookingUseCase, requestSvc request.RequestUseCase, reportSvc report.ReportUseCase) error {
	router := gin.New()
	router.Use(gin.Recovery(), api.Identity())

	v1 := router.Group("/api/v1")
	api.NewBookingHandler(bookingSvc).Register(v1)
	api.NewRequestHandler(requestSvc).Register(v1)
	api.NewReportHandler(reportSvc).Register(v1)

	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
