package repo

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/playvault/services/payment/internal/models"
)

// CreateOrderWithPayment stores the order, its items and its first payment in one
// transaction and links them both ways.
func (r *GormRepo) CreateOrderWithPayment(ctx context.Context, order *models.Order, payment *models.Payment) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}

		payment.OrderID = order.ID
		if err := tx.Omit("Order").Create(payment).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Update("payment_id", payment.ID).Error; err != nil {
			return err
		}
		order.PaymentID = &payment.ID
		return nil
	})
}

func (r *GormRepo) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindOrder looks an order up by internal id or by its human-readable number.
func (r *GormRepo) FindOrder(ctx context.Context, ref string) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).
		Preload("Items").
		Where("id = ? OR order_number = ?", ref, ref).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders returns orders newest first. An empty userID lists every order.
func (r *GormRepo) ListOrders(ctx context.Context, userID string, offset, limit int) ([]models.Order, int64, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{})
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	if err := q.Preload("Items").Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// MarkOrderPaid flips isPaid and stamps paidAt. It changes nothing on an order that is
// already paid, so paidAt is written once.
func (r *GormRepo) MarkOrderPaid(ctx context.Context, orderID string, paidAt time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND is_paid = ?", orderID, false).
		Updates(map[string]any{"is_paid": true, "paid_at": paidAt})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ClaimStockReconciliation returns true for exactly one caller per order.
func (r *GormRepo) ClaimStockReconciliation(ctx context.Context, orderID string) (bool, error) {
	res := r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND stock_reconciled = ?", orderID, false).
		Update("stock_reconciled", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeleteOrderCascade removes the order's payments, then its items, then the order.
func (r *GormRepo) DeleteOrderCascade(ctx context.Context, orderID string) (int64, error) {
	var removed int64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Where("id = ?", orderID).First(&order).Error; err != nil {
			return err
		}

		res := tx.Where("order_id = ?", order.ID).Delete(&models.Payment{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected

		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", order.ID).Delete(&models.Order{}).Error
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

type Stats struct {
	TotalOrders   int64           `json:"totalOrders"`
	PaidOrders    int64           `json:"paidOrders"`
	PendingReview int64           `json:"pendingReview"`
	Revenue       decimal.Decimal `json:"totalRevenue"`
}

func (r *GormRepo) Stats(ctx context.Context) (*Stats, error) {
	db := r.DB.WithContext(ctx)
	var s Stats

	if err := db.Model(&models.Order{}).Count(&s.TotalOrders).Error; err != nil {
		return nil, err
	}

	var totals []decimal.Decimal
	if err := db.Model(&models.Order{}).Where("is_paid = ?", true).Pluck("total_price", &totals).Error; err != nil {
		return nil, err
	}
	s.PaidOrders = int64(len(totals))
	s.Revenue = decimal.Sum(decimal.Zero, totals...).Round(2)

	if err := db.Model(&models.Payment{}).Where("payment_status = ?", models.StatusUnderReview).Count(&s.PendingReview).Error; err != nil {
		return nil, err
	}
	return &s, nil
}
