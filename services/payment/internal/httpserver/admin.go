package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/playvault/pkg/logging"
	"github.com/Skotchmaster/playvault/services/payment/internal/transport"
)

func (h *PaymentHTTP) ListPending(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_pending")

	page, size := pageParams(c)
	res, err := h.Gateway.ListUnderReview(ctx, callerOf(c), page, size)
	if err != nil {
		return fail(l, "list_pending_error", err)
	}

	l.Infow("list_pending_success", "count", len(res.Items), "total", res.Total)
	return c.JSON(http.StatusOK, res)
}

func (h *PaymentHTTP) Approve(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.approve_payment")

	p, err := h.Gateway.Approve(ctx, callerOf(c), c.Param("id"))
	if err != nil {
		return fail(l, "approve_payment_error", err)
	}

	l.Infow("approve_payment_success", "payment_id", p.ID, "order_id", p.OrderID)
	return c.JSON(http.StatusOK, transport.ReviewResponse{Message: "Payment approved successfully", Payment: p})
}

func (h *PaymentHTTP) Reject(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.reject_payment")

	p, err := h.Gateway.Reject(ctx, callerOf(c), c.Param("id"))
	if err != nil {
		return fail(l, "reject_payment_error", err)
	}

	l.Infow("reject_payment_success", "payment_id", p.ID)
	return c.JSON(http.StatusOK, transport.ReviewResponse{Message: "Payment rejected", Payment: p})
}

func (h *PaymentHTTP) Reconcile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.reconcile")

	n, err := h.Gateway.Resume(ctx, callerOf(c))
	if err != nil {
		return fail(l, "reconcile_error", err)
	}

	l.Infow("reconcile_success", "completed", n)
	return c.JSON(http.StatusOK, transport.ReconcileResponse{Completed: n})
}

func (h *PaymentHTTP) GetConfig(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.get_config")

	cfg, err := h.Gateway.GetConfig(ctx, callerOf(c))
	if err != nil {
		return fail(l, "get_config_error", err)
	}
	return c.JSON(http.StatusOK, cfg)
}

func (h *PaymentHTTP) UpdateConfig(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.update_config")

	var req transport.ConfigRequest
	if err := c.Bind(&req); err != nil {
		l.Warnw("update_config_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	cfg, err := h.Gateway.UpdateConfig(ctx, callerOf(c), req)
	if err != nil {
		return fail(l, "update_config_error", err)
	}

	l.Infow("update_config_success", "upi_id", cfg.UpiID)
	return c.JSON(http.StatusOK, cfg)
}

func (h *PaymentHTTP) Orders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.orders")

	page, size := pageParams(c)
	res, err := h.Gateway.Orders(ctx, callerOf(c), page, size)
	if err != nil {
		return fail(l, "admin_orders_error", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *PaymentHTTP) DeleteOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_order")

	if err := h.Gateway.DeleteOrder(ctx, callerOf(c), c.Param("id")); err != nil {
		return fail(l, "delete_order_error", err)
	}

	l.Infow("delete_order_success", "order", c.Param("id"))
	return c.JSON(http.StatusOK, echo.Map{"message": "Order removed"})
}

func (h *PaymentHTTP) Stats(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.stats")

	st, err := h.Gateway.Stats(ctx, callerOf(c))
	if err != nil {
		return fail(l, "stats_error", err)
	}
	return c.JSON(http.StatusOK, st)
}
