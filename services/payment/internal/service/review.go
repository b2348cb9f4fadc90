package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Skotchmaster/playvault/pkg/logging"
	"github.com/Skotchmaster/playvault/pkg/util"
	"github.com/Skotchmaster/playvault/services/payment/internal/catalog"
	"github.com/Skotchmaster/playvault/services/payment/internal/models"
	"github.com/Skotchmaster/playvault/services/payment/internal/transport"
)

var openStatuses = []models.PaymentStatus{models.StatusPending, models.StatusUnderReview}

// Approve marks the payment successful, then the order paid, then deducts one unit of stock
// per line item. The status change is a compare-and-set, so of two concurrent approvals only
// one gets past it and the other sees ErrConflict.
func (s *PaymentService) Approve(ctx context.Context, paymentID string) (*models.Payment, error) {
	ctx, span := tracer.Start(ctx, "payment.approve")
	defer span.End()
	span.SetAttributes(attribute.String("payment.id", paymentID))

	p, err := s.Repo.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, fail(span, storeErr("payment "+paymentID, err))
	}
	if p.PaymentStatus == models.StatusSuccess {
		s.finishApproved(ctx, p)
		return nil, fail(span, fmt.Errorf("%w: already approved", ErrConflict))
	}
	if p.PaymentStatus.Terminal() {
		return nil, fail(span, fmt.Errorf("%w: payment already decided as %s", ErrConflict, p.PaymentStatus))
	}
	if !p.PaymentStatus.Open() {
		return nil, fail(span, fmt.Errorf("%w: payment is %s", ErrConflict, p.PaymentStatus))
	}

	order, err := s.Repo.GetOrder(ctx, p.OrderID)
	if err != nil {
		return nil, fail(span, storeErr("order "+p.OrderID, err))
	}

	receipt := s.ReceiptURL(order.ID)
	ok, err := s.Repo.TransitionPayment(ctx, p.ID, openStatuses, models.StatusSuccess,
		map[string]any{"receipt_url": receipt})
	if err != nil {
		return nil, fail(span, storeErr("approve payment", err))
	}
	if !ok {
		return nil, fail(span, fmt.Errorf("%w: already approved", ErrConflict))
	}
	p.PaymentStatus = models.StatusSuccess
	p.ReceiptURL = &receipt
	s.Metrics.Transition(string(p.PaymentStatus))

	if err := s.completeApproval(ctx, order); err != nil {
		return nil, fail(span, err)
	}

	s.publish(ctx, "payment_approved", p, order)
	return p, nil
}

// finishApproved completes the order of an already successful payment when an earlier
// approval stopped partway. Errors are logged; the caller still reports the conflict.
func (s *PaymentService) finishApproved(ctx context.Context, p *models.Payment) {
	l := logging.FromContext(ctx).With("payment_id", p.ID, "order_id", p.OrderID)

	order, err := s.Repo.GetOrder(ctx, p.OrderID)
	if err != nil {
		l.Warnw("approval_finish_failed", "error", err)
		return
	}
	if order.IsPaid && order.StockReconciled {
		return
	}
	if err := s.completeApproval(ctx, order); err != nil {
		l.Warnw("approval_finish_failed", "error", err)
		return
	}
	l.Infow("approval_finished")
}

// completeApproval runs the steps that follow a successful payment. Each step is guarded in
// the store, so it is safe to repeat after a crash at any point.
func (s *PaymentService) completeApproval(ctx context.Context, order *models.Order) error {
	l := logging.FromContext(ctx).With("order_id", order.ID)

	if _, err := s.Repo.MarkOrderPaid(ctx, order.ID, s.now()); err != nil {
		return storeErr("mark order paid", err)
	}

	claimed, err := s.Repo.ClaimStockReconciliation(ctx, order.ID)
	if err != nil {
		return storeErr("claim stock reconciliation", err)
	}
	if !claimed {
		return nil
	}

	for _, item := range order.Items {
		res, err := s.Stock.DecrementStock(ctx, item.GameID)
		s.Metrics.StockResult(string(res))
		switch {
		case err != nil:
			l.Warnw("stock_decrement_failed", "game", item.GameID, "error", err)
		case res == catalog.ResultMissing:
			l.Infow("stock_decrement_skipped", "game", item.GameID, "reason", "game not found")
		case res == catalog.ResultFloored:
			l.Infow("stock_decrement_skipped", "game", item.GameID, "reason", "out of stock")
		}
	}
	return nil
}

// Reject fails an open payment. The order and stock are left alone.
func (s *PaymentService) Reject(ctx context.Context, paymentID string) (*models.Payment, error) {
	ctx, span := tracer.Start(ctx, "payment.reject")
	defer span.End()
	span.SetAttributes(attribute.String("payment.id", paymentID))

	p, err := s.Repo.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, fail(span, storeErr("payment "+paymentID, err))
	}
	if p.PaymentStatus == models.StatusSuccess {
		return nil, fail(span, fmt.Errorf("%w: payment already approved", ErrConflict))
	}
	if p.PaymentStatus.Terminal() {
		return nil, fail(span, fmt.Errorf("%w: payment already decided as %s", ErrConflict, p.PaymentStatus))
	}
	if !p.PaymentStatus.Open() {
		return nil, fail(span, fmt.Errorf("%w: payment is %s", ErrConflict, p.PaymentStatus))
	}

	ok, err := s.Repo.TransitionPayment(ctx, p.ID, openStatuses, models.StatusFailed, nil)
	if err != nil {
		return nil, fail(span, storeErr("reject payment", err))
	}
	if !ok {
		return nil, fail(span, fmt.Errorf("%w: payment was already decided", ErrConflict))
	}

	p.PaymentStatus = models.StatusFailed
	s.Metrics.Transition(string(p.PaymentStatus))
	s.publish(ctx, "payment_rejected", p, nil)
	return p, nil
}

// ResumeApproved finishes approvals that stopped after the payment was marked successful.
// It returns how many orders it completed.
func (s *PaymentService) ResumeApproved(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "payment.resume_approved")
	defer span.End()
	l := logging.FromContext(ctx)

	pending, err := s.Repo.FindIncompleteApprovals(ctx)
	if err != nil {
		return 0, fail(span, storeErr("find incomplete approvals", err))
	}

	var (
		done int
		errs []error
	)
	for _, p := range pending {
		order, err := s.Repo.GetOrder(ctx, p.OrderID)
		if err != nil {
			errs = append(errs, storeErr("order "+p.OrderID, err))
			continue
		}
		if err := s.completeApproval(ctx, order); err != nil {
			errs = append(errs, err)
			continue
		}
		done++
		l.Infow("approval_resumed", "payment_id", p.ID, "order_id", order.ID)
	}

	span.SetAttributes(attribute.Int("approvals.resumed", done))
	if err := errors.Join(errs...); err != nil {
		return done, fail(span, err)
	}
	return done, nil
}

func (s *PaymentService) ListUnderReview(ctx context.Context, page, size int) (*transport.Page[models.Payment], error) {
	offset, limit := util.Calculate(page, size)
	items, total, err := s.Repo.ListPaymentsByStatus(ctx, models.StatusUnderReview, offset, limit)
	if err != nil {
		return nil, storeErr("list payments", err)
	}
	if items == nil {
		items = []models.Payment{}
	}
	return &transport.Page[models.Payment]{
		Items: items,
		Total: total,
		Page:  offset/limit + 1,
		Size:  limit,
	}, nil
}
