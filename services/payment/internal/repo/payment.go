package repo

import (
	"context"

	"github.com/Skotchmaster/playvault/services/payment/internal/models"
)

func (r *GormRepo) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	var p models.Payment
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// TransitionPayment moves the payment to `to` only if its current status is one of `from`.
// The boolean is false when another writer got there first.
func (r *GormRepo) TransitionPayment(ctx context.Context, id string, from []models.PaymentStatus, to models.PaymentStatus, extra map[string]any) (bool, error) {
	updates := map[string]any{"payment_status": to}
	for k, v := range extra {
		updates[k] = v
	}

	res := r.DB.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND payment_status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormRepo) ListPaymentsByStatus(ctx context.Context, status models.PaymentStatus, offset, limit int) ([]models.Payment, int64, error) {
	q := r.DB.WithContext(ctx).Model(&models.Payment{}).Where("payment_status = ?", status)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var payments []models.Payment
	if err := q.Preload("Order").Order("created_at ASC").Offset(offset).Limit(limit).Find(&payments).Error; err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}

// LatestPayments maps each order id to its most recent payment.
func (r *GormRepo) LatestPayments(ctx context.Context, orderIDs []string) (map[string]models.Payment, error) {
	out := make(map[string]models.Payment, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}

	var payments []models.Payment
	if err := r.DB.WithContext(ctx).Where("order_id IN ?", orderIDs).Order("created_at ASC").Find(&payments).Error; err != nil {
		return nil, err
	}
	for _, p := range payments {
		out[p.OrderID] = p
	}
	return out, nil
}

// FindIncompleteApprovals lists successful payments whose order was not marked paid or
// whose stock was not reconciled yet.
func (r *GormRepo) FindIncompleteApprovals(ctx context.Context) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.DB.WithContext(ctx).
		Model(&models.Payment{}).
		Joins("JOIN orders ON orders.id = payments.order_id").
		Where("payments.payment_status = ? AND (orders.is_paid = ? OR orders.stock_reconciled = ?)", models.StatusSuccess, false, false).
		Order("payments.created_at ASC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}
