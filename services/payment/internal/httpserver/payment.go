package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/playvault/pkg/logging"
	middleware "github.com/Skotchmaster/playvault/pkg/middleware/auth"
	"github.com/Skotchmaster/playvault/pkg/util"
	"github.com/Skotchmaster/playvault/services/payment/internal/service"
	"github.com/Skotchmaster/playvault/services/payment/internal/transport"
)

type PaymentHTTP struct {
	Svc     *service.PaymentService
	Gateway *service.ReviewGateway
}

func callerOf(c echo.Context) service.Caller {
	return service.Caller{UserID: middleware.UserID(c), Role: middleware.Role(c)}
}

func pageParams(c echo.Context) (int, int) {
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	return page, size
}

func (h *PaymentHTTP) CreateCheckout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.create_checkout")

	var req transport.CreateCheckoutRequest
	if err := c.Bind(&req); err != nil {
		l.Warnw("create_checkout_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.CreateCheckout(ctx, callerOf(c), req)
	if err != nil {
		return fail(l, "create_checkout_error", err)
	}

	l.Infow("create_checkout_success", "payment_id", res.PaymentID, "order_id", res.OrderID)
	return c.JSON(http.StatusCreated, res)
}

func (h *PaymentHTTP) SubmitTransaction(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.submit_transaction")

	var req transport.VerifyRequest
	if err := c.Bind(&req); err != nil {
		l.Warnw("submit_transaction_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	p, err := h.Svc.SubmitTransaction(ctx, callerOf(c), req.PaymentID, req.TransactionID)
	if err != nil {
		return fail(l, "submit_transaction_error", err)
	}

	l.Infow("submit_transaction_success", "payment_id", p.ID)
	return c.JSON(http.StatusOK, echo.Map{
		"message":       "Payment submitted for review",
		"paymentStatus": p.PaymentStatus,
		"payment":       p,
	})
}

func (h *PaymentHTTP) CancelPayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.cancel")

	p, err := h.Svc.CancelPayment(ctx, callerOf(c), c.Param("id"))
	if err != nil {
		return fail(l, "cancel_payment_error", err)
	}

	l.Infow("cancel_payment_success", "payment_id", p.ID)
	return c.JSON(http.StatusOK, p)
}

func (h *PaymentHTTP) MyOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.my_orders")

	page, size := pageParams(c)
	res, err := h.Svc.MyOrders(ctx, callerOf(c), page, size)
	if err != nil {
		return fail(l, "my_orders_error", err)
	}

	l.Infow("my_orders_success", "count", len(res.Items))
	return c.JSON(http.StatusOK, res)
}
