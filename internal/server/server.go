package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"storefront/internal/handler"
	"storefront/internal/metrics"
	"storefront/internal/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Depsはサーバー組み立てに必要な部品
type Deps struct {
	Wishlist *handler.WishlistHandler
	Products *handler.ProductHandler
	Users    *handler.UserHandler
	Health   *handler.HealthHandler
	Metrics  *metrics.Metrics
	Logger   *zap.Logger

	SessionSecret string
}

// Newはミドルウェアとルートを載せたechoを返す
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.AccessLog(logger))
	if d.Metrics != nil {
		e.Use(middleware.Metrics(d.Metrics))
	}

	RegisterRoutes(e, d)
	return e
}

// Startはctxが終わるまで待ち受けて、終わったらgracefulに止める
func Start(ctx context.Context, e *echo.Echo, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
