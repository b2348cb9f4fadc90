// Package service owns the order and payment lifecycle: checkout, buyer attestation,
// admin review and the side effects of an approval.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Skotchmaster/playvault/pkg/events"
	"github.com/Skotchmaster/playvault/pkg/logging"
	"github.com/Skotchmaster/playvault/services/payment/internal/catalog"
	"github.com/Skotchmaster/playvault/services/payment/internal/metrics"
	"github.com/Skotchmaster/playvault/services/payment/internal/models"
	"github.com/Skotchmaster/playvault/services/payment/internal/orderid"
	"github.com/Skotchmaster/playvault/services/payment/internal/repo"
	"github.com/Skotchmaster/playvault/services/payment/internal/transport"
	"github.com/Skotchmaster/playvault/services/payment/internal/upi"
)

const (
	maxTransactionIDLen = 128
	createAttempts      = 2
)

type Ledger interface {
	CreateOrderWithPayment(ctx context.Context, order *models.Order, payment *models.Payment) error
	GetPayment(ctx context.Context, id string) (*models.Payment, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	FindOrder(ctx context.Context, ref string) (*models.Order, error)
	TransitionPayment(ctx context.Context, id string, from []models.PaymentStatus, to models.PaymentStatus, extra map[string]any) (bool, error)
	MarkOrderPaid(ctx context.Context, orderID string, paidAt time.Time) (bool, error)
	ClaimStockReconciliation(ctx context.Context, orderID string) (bool, error)
	ListPaymentsByStatus(ctx context.Context, status models.PaymentStatus, offset, limit int) ([]models.Payment, int64, error)
	LatestPayments(ctx context.Context, orderIDs []string) (map[string]models.Payment, error)
	ListOrders(ctx context.Context, userID string, offset, limit int) ([]models.Order, int64, error)
	DeleteOrderCascade(ctx context.Context, orderID string) (int64, error)
	GetOrCreateConfig(ctx context.Context, defaults models.PaymentConfig) (*models.PaymentConfig, error)
	UpdateConfig(ctx context.Context, upiID, payeeName string) (*models.PaymentConfig, error)
	Stats(ctx context.Context) (*repo.Stats, error)
	FindIncompleteApprovals(ctx context.Context) ([]models.Payment, error)
}

type StockReconciler interface {
	DecrementStock(ctx context.Context, gameID string) (catalog.Result, error)
}

type ConfigCache interface {
	Get(ctx context.Context) (*models.PaymentConfig, error)
	Set(ctx context.Context, cfg *models.PaymentConfig) error
	Invalidate(ctx context.Context) error
}

type Settings struct {
	ReceiptBaseURL string
	EventsTopic    string
	DefaultPayee   upi.Payee
}

type PaymentService struct {
	Repo     Ledger
	Stock    StockReconciler
	IDs      orderid.Generator
	QR       *upi.Builder
	Events   events.Publisher
	Cache    ConfigCache
	Metrics  *metrics.Metrics
	Settings Settings
	Now      func() time.Time
}

var tracer = otel.Tracer("payment-service")

func (s *PaymentService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *PaymentService) ReceiptURL(orderID string) string {
	return strings.TrimRight(s.Settings.ReceiptBaseURL, "/") + "/payments/receipt/" + orderID
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func validateCheckout(req transport.CreateCheckoutRequest) ([]models.OrderItem, decimal.Decimal, error) {
	if len(req.OrderItems) == 0 {
		return nil, decimal.Zero, fmt.Errorf("%w: order items required", ErrValidation)
	}

	sum := decimal.Zero
	items := make([]models.OrderItem, 0, len(req.OrderItems))
	for i, it := range req.OrderItems {
		title := strings.TrimSpace(it.Title)
		game := strings.TrimSpace(it.Game)
		if title == "" {
			return nil, decimal.Zero, fmt.Errorf("%w: item %d: title required", ErrValidation, i)
		}
		if game == "" {
			return nil, decimal.Zero, fmt.Errorf("%w: item %d: game required", ErrValidation, i)
		}
		if it.Price.IsNegative() {
			return nil, decimal.Zero, fmt.Errorf("%w: item %d: price must be >= 0", ErrValidation, i)
		}

		price := it.Price.Round(2)
		sum = sum.Add(price)
		items = append(items, models.OrderItem{Title: title, Price: price, GameID: game})
	}

	total := req.TotalPrice.Round(2)
	if !total.IsPositive() {
		return nil, decimal.Zero, fmt.Errorf("%w: total must be > 0", ErrValidation)
	}
	if !total.Equal(sum) {
		return nil, decimal.Zero, fmt.Errorf("%w: total %s does not match items %s", ErrValidation, total, sum)
	}
	return items, total, nil
}

// CreateCheckout opens a PENDING payment for a new order and renders the UPI QR code the
// buyer scans. A collision on the generated order number is retried once.
func (s *PaymentService) CreateCheckout(ctx context.Context, caller Caller, req transport.CreateCheckoutRequest) (*transport.CheckoutResponse, error) {
	ctx, span := tracer.Start(ctx, "payment.create_checkout")
	defer span.End()
	l := logging.FromContext(ctx)

	if caller.UserID == "" {
		return nil, fail(span, fmt.Errorf("%w: authentication required", ErrAuth))
	}

	items, total, err := validateCheckout(req)
	if err != nil {
		return nil, fail(span, err)
	}

	cfg, err := s.GetConfig(ctx)
	if err != nil {
		return nil, fail(span, err)
	}
	payee := upi.Payee{UpiID: cfg.UpiID, PayeeName: cfg.PayeeName}

	for attempt := 1; ; attempt++ {
		number := s.IDs.Next()
		payload, err := s.QR.Build(total, number, payee)
		if err != nil {
			return nil, fail(span, fmt.Errorf("%w: %w", ErrValidation, err))
		}

		order := &models.Order{
			OrderNumber:   number,
			UserID:        caller.UserID,
			Items:         append([]models.OrderItem(nil), items...),
			TotalPrice:    total,
			PaymentMethod: models.MethodQR,
		}
		payment := &models.Payment{
			UserID:        caller.UserID,
			Amount:        total,
			PaymentMethod: models.MethodQR,
			PaymentStatus: models.StatusPending,
		}

		err = s.Repo.CreateOrderWithPayment(ctx, order, payment)
		if err == nil {
			span.SetAttributes(
				attribute.String("order.number", number),
				attribute.String("payment.id", payment.ID),
				attribute.Int("checkout.attempts", attempt),
			)
			s.Metrics.Transition(string(models.StatusPending))
			s.publish(ctx, "payment_created", payment, order)

			return &transport.CheckoutResponse{
				PaymentID:  payment.ID,
				OrderID:    order.OrderNumber,
				OrderRef:   order.ID,
				QRImage:    payload.Image,
				PaymentURI: payload.URI,
				UpiID:      payee.UpiID,
				PayeeName:  payee.PayeeName,
				Amount:     total,
			}, nil
		}

		if !repo.IsUniqueViolation(err) || attempt >= createAttempts {
			return nil, fail(span, fmt.Errorf("%w: create order: %w", ErrPersistence, err))
		}
		s.Metrics.Collision()
		l.Warnw("order_number_collision", "order_number", number, "attempt", attempt)
	}
}

// SubmitTransaction records the buyer's self-reported transaction id and queues the payment
// for review. Payments of other users are reported as missing.
func (s *PaymentService) SubmitTransaction(ctx context.Context, caller Caller, paymentID, transactionID string) (*models.Payment, error) {
	ctx, span := tracer.Start(ctx, "payment.submit_transaction")
	defer span.End()
	span.SetAttributes(attribute.String("payment.id", paymentID))

	if caller.UserID == "" {
		return nil, fail(span, fmt.Errorf("%w: authentication required", ErrAuth))
	}

	txID := strings.TrimSpace(transactionID)
	if txID == "" {
		return nil, fail(span, fmt.Errorf("%w: transaction id required", ErrValidation))
	}
	if len(txID) > maxTransactionIDLen {
		return nil, fail(span, fmt.Errorf("%w: transaction id too long", ErrValidation))
	}
	if strings.TrimSpace(paymentID) == "" {
		return nil, fail(span, fmt.Errorf("%w: payment id required", ErrValidation))
	}

	p, err := s.ownPayment(ctx, caller, paymentID)
	if err != nil {
		return nil, fail(span, err)
	}
	if p.PaymentStatus != models.StatusPending {
		return nil, fail(span, fmt.Errorf("%w: payment is %s", ErrConflict, p.PaymentStatus))
	}

	ok, err := s.Repo.TransitionPayment(ctx, p.ID,
		[]models.PaymentStatus{models.StatusPending}, models.StatusUnderReview,
		map[string]any{"transaction_id": txID})
	if err != nil {
		return nil, fail(span, storeErr("submit transaction", err))
	}
	if !ok {
		return nil, fail(span, fmt.Errorf("%w: payment is no longer pending", ErrConflict))
	}

	p.PaymentStatus = models.StatusUnderReview
	p.TransactionID = &txID
	s.Metrics.Transition(string(p.PaymentStatus))
	s.publish(ctx, "payment_submitted", p, nil)
	return p, nil
}

// CancelPayment lets the buyer abandon a payment that is still pending or under review.
func (s *PaymentService) CancelPayment(ctx context.Context, caller Caller, paymentID string) (*models.Payment, error) {
	ctx, span := tracer.Start(ctx, "payment.cancel")
	defer span.End()
	span.SetAttributes(attribute.String("payment.id", paymentID))

	if caller.UserID == "" {
		return nil, fail(span, fmt.Errorf("%w: authentication required", ErrAuth))
	}

	p, err := s.ownPayment(ctx, caller, paymentID)
	if err != nil {
		return nil, fail(span, err)
	}
	if !p.PaymentStatus.Open() {
		return nil, fail(span, fmt.Errorf("%w: payment is %s", ErrConflict, p.PaymentStatus))
	}

	ok, err := s.Repo.TransitionPayment(ctx, p.ID,
		[]models.PaymentStatus{models.StatusPending, models.StatusUnderReview}, models.StatusCancelled, nil)
	if err != nil {
		return nil, fail(span, storeErr("cancel payment", err))
	}
	if !ok {
		return nil, fail(span, fmt.Errorf("%w: payment was already decided", ErrConflict))
	}

	p.PaymentStatus = models.StatusCancelled
	s.Metrics.Transition(string(p.PaymentStatus))
	s.publish(ctx, "payment_cancelled", p, nil)
	return p, nil
}

func (s *PaymentService) ownPayment(ctx context.Context, caller Caller, paymentID string) (*models.Payment, error) {
	p, err := s.Repo.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, storeErr("payment "+paymentID, err)
	}
	if p.UserID != caller.UserID {
		return nil, fmt.Errorf("%w: payment %s", ErrNotFound, paymentID)
	}
	return p, nil
}

// Event is the message published on every payment lifecycle change.
type Event struct {
	Type        string               `json:"type"`
	PaymentID   string               `json:"paymentId,omitempty"`
	OrderID     string               `json:"orderRef"`
	OrderNumber string               `json:"orderId,omitempty"`
	UserID      string               `json:"user"`
	Status      models.PaymentStatus `json:"status,omitempty"`
	Amount      decimal.Decimal      `json:"amount"`
	At          time.Time            `json:"at"`
}

func (s *PaymentService) publish(ctx context.Context, kind string, p *models.Payment, o *models.Order) {
	if s.Events == nil {
		return
	}

	ev := Event{Type: kind, At: s.now()}
	if p != nil {
		ev.PaymentID = p.ID
		ev.OrderID = p.OrderID
		ev.UserID = p.UserID
		ev.Status = p.PaymentStatus
		ev.Amount = p.Amount
	}
	if o != nil {
		ev.OrderID = o.ID
		ev.OrderNumber = o.OrderNumber
		ev.UserID = o.UserID
		if p == nil {
			ev.Amount = o.TotalPrice
		}
	}

	if err := s.Events.PublishEvent(ctx, s.Settings.EventsTopic, ev.UserID, ev); err != nil {
		logging.FromContext(ctx).Warnw("publish_event_failed", "type", kind, "error", err)
	}
}
