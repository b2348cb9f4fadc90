package service

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/playvault/pkg/logging"
	"github.com/Skotchmaster/playvault/pkg/util"
	"github.com/Skotchmaster/playvault/services/payment/internal/models"
	"github.com/Skotchmaster/playvault/services/payment/internal/repo"
	"github.com/Skotchmaster/playvault/services/payment/internal/transport"
)

const unknown = "Unknown"

// DeleteOrder removes an order and every payment that references it. Stock is not restored.
func (s *PaymentService) DeleteOrder(ctx context.Context, ref string) error {
	ctx, span := tracer.Start(ctx, "payment.delete_order")
	defer span.End()

	order, err := s.Repo.FindOrder(ctx, ref)
	if err != nil {
		return fail(span, storeErr("order "+ref, err))
	}

	removed, err := s.Repo.DeleteOrderCascade(ctx, order.ID)
	if err != nil {
		return fail(span, storeErr("delete order", err))
	}

	logging.FromContext(ctx).Infow("order_deleted", "order_id", order.ID, "payments_removed", removed)
	s.publish(ctx, "order_deleted", nil, order)
	return nil
}

func (s *PaymentService) MyOrders(ctx context.Context, caller Caller, page, size int) (*transport.Page[transport.OrderView], error) {
	if caller.UserID == "" {
		return nil, fmt.Errorf("%w: authentication required", ErrAuth)
	}

	offset, limit := util.Calculate(page, size)
	orders, total, err := s.Repo.ListOrders(ctx, caller.UserID, offset, limit)
	if err != nil {
		return nil, storeErr("list orders", err)
	}
	latest, err := s.Repo.LatestPayments(ctx, orderIDs(orders))
	if err != nil {
		return nil, storeErr("list payments", err)
	}

	views := make([]transport.OrderView, 0, len(orders))
	for _, o := range orders {
		v := transport.OrderView{Order: o}
		if p, ok := latest[o.ID]; ok {
			v.Payment = &p
		}
		views = append(views, v)
	}
	return &transport.Page[transport.OrderView]{Items: views, Total: total, Page: offset/limit + 1, Size: limit}, nil
}

// AdminOrders lists every order with the status, method and transaction id of its latest
// payment, or Unknown when it has none.
func (s *PaymentService) AdminOrders(ctx context.Context, page, size int) (*transport.Page[transport.AdminOrderView], error) {
	offset, limit := util.Calculate(page, size)
	orders, total, err := s.Repo.ListOrders(ctx, "", offset, limit)
	if err != nil {
		return nil, storeErr("list orders", err)
	}
	latest, err := s.Repo.LatestPayments(ctx, orderIDs(orders))
	if err != nil {
		return nil, storeErr("list payments", err)
	}

	views := make([]transport.AdminOrderView, 0, len(orders))
	for _, o := range orders {
		v := transport.AdminOrderView{Order: o, PaymentStatus: unknown, PaymentMethod: unknown, TransactionID: unknown}
		if p, ok := latest[o.ID]; ok {
			v.PaymentStatus = string(p.PaymentStatus)
			v.PaymentMethod = string(p.PaymentMethod)
			if p.TransactionID != nil && *p.TransactionID != "" {
				v.TransactionID = *p.TransactionID
			}
		}
		views = append(views, v)
	}
	return &transport.Page[transport.AdminOrderView]{Items: views, Total: total, Page: offset/limit + 1, Size: limit}, nil
}

func (s *PaymentService) Stats(ctx context.Context) (*repo.Stats, error) {
	st, err := s.Repo.Stats(ctx)
	if err != nil {
		return nil, storeErr("stats", err)
	}
	return st, nil
}

// Receipt returns the confirmation for a paid order. Orders of other buyers are reported as
// missing unless the caller is an admin.
func (s *PaymentService) Receipt(ctx context.Context, caller Caller, ref string) (*transport.Receipt, error) {
	if caller.UserID == "" {
		return nil, fmt.Errorf("%w: authentication required", ErrAuth)
	}

	order, err := s.Repo.FindOrder(ctx, ref)
	if err != nil {
		return nil, storeErr("order "+ref, err)
	}
	if order.UserID != caller.UserID && !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, ref)
	}
	if !order.IsPaid || order.PaidAt == nil {
		return nil, fmt.Errorf("%w: order is not paid", ErrConflict)
	}

	r := &transport.Receipt{
		OrderNumber:   order.OrderNumber,
		OrderRef:      order.ID,
		UserID:        order.UserID,
		Items:         order.Items,
		TotalPrice:    order.TotalPrice,
		PaidAt:        *order.PaidAt,
		PaymentMethod: string(order.PaymentMethod),
	}

	latest, err := s.Repo.LatestPayments(ctx, []string{order.ID})
	if err != nil {
		return nil, storeErr("receipt payment", err)
	}
	if p, ok := latest[order.ID]; ok && p.TransactionID != nil {
		r.TransactionID = *p.TransactionID
	}

	cfg, err := s.GetConfig(ctx)
	if err != nil {
		logging.FromContext(ctx).Warnw("receipt_payee_unavailable", "order_id", order.ID, "error", err)
	} else {
		r.PayeeName = cfg.PayeeName
	}
	return r, nil
}

func orderIDs(orders []models.Order) []string {
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	return ids
}
