package httpserver

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/playvault/pkg/logging"
)

var receiptTmpl = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Receipt {{.OrderNumber}}</title></head>
<body>
<h1>Payment receipt</h1>
<p>Order <strong>{{.OrderNumber}}</strong></p>
<p>Paid on {{.PaidAt.Format "02 Jan 2006 15:04 MST"}}{{if .PayeeName}} to {{.PayeeName}}{{end}}</p>
{{if .TransactionID}}<p>Transaction reference {{.TransactionID}}</p>{{end}}
<table>
<thead><tr><th>Item</th><th>Price</th></tr></thead>
<tbody>
{{range .Items}}<tr><td>{{.Title}}</td><td>&#8377;{{.Price.StringFixed 2}}</td></tr>
{{end}}</tbody>
<tfoot><tr><th>Total</th><th>&#8377;{{.TotalPrice.StringFixed 2}}</th></tr></tfoot>
</table>
<p>Method {{.PaymentMethod}}</p>
</body>
</html>
`))

func (h *PaymentHTTP) Receipt(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.receipt")

	r, err := h.Svc.Receipt(ctx, callerOf(c), c.Param("orderId"))
	if err != nil {
		return fail(l, "receipt_error", err)
	}

	var buf bytes.Buffer
	if err := receiptTmpl.Execute(&buf, r); err != nil {
		l.Errorw("receipt_error", "status", 500, "reason", "render", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Infow("receipt_success", "order_id", r.OrderRef)
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}
