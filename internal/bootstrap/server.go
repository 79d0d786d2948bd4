package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Domenick1991/flighttrack/api"
	"github.com/Domenick1991/flighttrack/config"
	"github.com/Domenick1991/flighttrack/internal/service/tracking"
	"github.com/gin-gonic/gin"
)

// Run starts the HTTP server and blocks until the context is canceled
// or the server fails.
func Run(ctx context.Context, cfg *config.Config, trackingSvc tracking.TrackingUseCase) error {
	router := newRouter(trackingSvc)

	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
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

func newRouter(trackingSvc tracking.TrackingUseCase) *gin.Engine {
	router := gin.Default()

	api.NewFlightHandler(trackingSvc).Register(router.Group("/flights"))
	api.NewRouteHandler(trackingSvc).Register(router.Group("/routes"))
	api.NewHistoryHandler(trackingSvc).Register(router.Group("/status-changes"))

	return router
}
