package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	middleware "github.com/Skotchmaster/playvault/pkg/middleware/auth"
)

type Deps struct {
	Handler   *PaymentHTTP
	JWTSecret []byte
	Ready     func(ctx context.Context) error
	Metrics   http.Handler
	CSRF      echo.MiddlewareFunc
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics))
	}

	authMW := middleware.NewAuthenticator(d.JWTSecret)
	h := d.Handler

	api := e.Group("/api/v1")
	if d.CSRF != nil {
		api.Use(d.CSRF)
	}
	api.POST("/payments/qr", h.CreateCheckout, authMW.RequireAuth)
	api.POST("/payments/qr/verify", h.SubmitTransaction, authMW.RequireAuth)
	api.POST("/payments/:id/cancel", h.CancelPayment, authMW.RequireAuth)
	api.GET("/payments/receipt/:orderId", h.Receipt, authMW.RequireAuth)
	api.GET("/orders/mine", h.MyOrders, authMW.RequireAuth)

	admin := api.Group("/admin", authMW.RequireAdmin)
	admin.GET("/payments/pending", h.ListPending)
	admin.POST("/payments/:id/confirm", h.Approve)
	admin.POST("/payments/:id/reject", h.Reject)
	admin.POST("/payments/reconcile", h.Reconcile)
	admin.GET("/payments/config", h.GetConfig)
	admin.PUT("/payments/config", h.UpdateConfig)
	admin.GET("/orders", h.Orders)
	admin.DELETE("/orders/:id", h.DeleteOrder)
	admin.GET("/stats", h.Stats)
}
