package repo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	pkgdb "github.com/Skotchmaster/playvault/pkg/db"
	"github.com/Skotchmaster/playvault/services/payment/internal/models"
)

func newTestRepo(t *testing.T) *GormRepo {
	t.Helper()
	ctx := context.Background()

	db, err := pkgdb.Open(ctx, "sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	r := &GormRepo{DB: db}
	require.NoError(t, r.AutoMigrate(ctx))
	return r
}

func newOrder(number, userID string, prices ...int64) *models.Order {
	o := &models.Order{
		OrderNumber:   number,
		UserID:        userID,
		PaymentMethod: models.MethodQR,
	}
	total := decimal.Zero
	for i, p := range prices {
		price := decimal.NewFromInt(p)
		o.Items = append(o.Items, models.OrderItem{
			Title:  fmt.Sprintf("game %d", i),
			Price:  price,
			GameID: fmt.Sprintf("g%d", i),
		})
		total = total.Add(price)
	}
	o.TotalPrice = total
	return o
}

func seedCheckout(t *testing.T, r *GormRepo, number, userID string, prices ...int64) (*models.Order, *models.Payment) {
	t.Helper()
	order := newOrder(number, userID, prices...)
	payment := &models.Payment{
		UserID:        userID,
		Amount:        order.TotalPrice,
		PaymentMethod: models.MethodQR,
		PaymentStatus: models.StatusPending,
	}
	require.NoError(t, r.CreateOrderWithPayment(context.Background(), order, payment))
	return order, payment
}

func TestCreateOrderWithPayment(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	order, payment := seedCheckout(t, r, "PV-1-AAAA", "u1", 1000, 500)
	require.NotEmpty(t, order.ID)
	require.NotEmpty(t, payment.ID)
	assert.Equal(t, order.ID, payment.OrderID)
	require.NotNil(t, order.PaymentID)
	assert.Equal(t, payment.ID, *order.PaymentID)

	got, err := r.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)
	assert.True(t, got.TotalPrice.Equal(decimal.NewFromInt(1500)))
	assert.False(t, got.IsPaid)
	require.NotNil(t, got.PaymentID)
	assert.Equal(t, payment.ID, *got.PaymentID)

	byNumber, err := r.FindOrder(ctx, "PV-1-AAAA")
	require.NoError(t, err)
	assert.Equal(t, order.ID, byNumber.ID)

	byID, err := r.FindOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "PV-1-AAAA", byID.OrderNumber)
}

func TestCreateOrderWithPayment_DuplicateNumberRollsBack(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedCheckout(t, r, "PV-1-DUPE", "u1", 1000)

	order := newOrder("PV-1-DUPE", "u2", 700)
	payment := &models.Payment{UserID: "u2", Amount: order.TotalPrice, PaymentMethod: models.MethodQR, PaymentStatus: models.StatusPending}
	err := r.CreateOrderWithPayment(ctx, order, payment)
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))

	var payments int64
	require.NoError(t, r.DB.Model(&models.Payment{}).Count(&payments).Error)
	assert.Equal(t, int64(1), payments)

	var items int64
	require.NoError(t, r.DB.Model(&models.OrderItem{}).Count(&items).Error)
	assert.Equal(t, int64(1), items)
}

func TestGetMissing(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	_, err := r.GetPayment(ctx, "nope")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = r.GetOrder(ctx, "nope")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = r.FindOrder(ctx, "nope")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestTransitionPayment(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	_, payment := seedCheckout(t, r, "PV-1-TRAN", "u1", 1000)

	tx := "UTR123"
	ok, err := r.TransitionPayment(ctx, payment.ID,
		[]models.PaymentStatus{models.StatusPending}, models.StatusUnderReview,
		map[string]any{"transaction_id": tx})
	require.NoError(t, err)
	assert.True(t, ok)

	// second submit finds the payment no longer pending
	ok, err = r.TransitionPayment(ctx, payment.ID,
		[]models.PaymentStatus{models.StatusPending}, models.StatusUnderReview, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	receipt := "http://x/payments/receipt/1"
	ok, err = r.TransitionPayment(ctx, payment.ID,
		[]models.PaymentStatus{models.StatusPending, models.StatusUnderReview}, models.StatusSuccess,
		map[string]any{"receipt_url": receipt})
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := r.GetPayment(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, got.PaymentStatus)
	require.NotNil(t, got.TransactionID)
	assert.Equal(t, tx, *got.TransactionID)
	require.NotNil(t, got.ReceiptURL)
	assert.Equal(t, receipt, *got.ReceiptURL)

	ok, err = r.TransitionPayment(ctx, "missing",
		[]models.PaymentStatus{models.StatusPending}, models.StatusFailed, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMarkOrderPaidOnce(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	order, _ := seedCheckout(t, r, "PV-1-PAID", "u1", 1000)

	first := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ok, err := r.MarkOrderPaid(ctx, order.ID, first)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.MarkOrderPaid(ctx, order.ID, first.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := r.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPaid)
	require.NotNil(t, got.PaidAt)
	assert.True(t, got.PaidAt.Equal(first))
}

func TestClaimStockReconciliation(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	order, _ := seedCheckout(t, r, "PV-1-CLAI", "u1", 1000)

	ok, err := r.ClaimStockReconciliation(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.ClaimStockReconciliation(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListPaymentsByStatus(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		_, p := seedCheckout(t, r, fmt.Sprintf("PV-1-L%03d", i), "u1", 100)
		ok, err := r.TransitionPayment(ctx, p.ID,
			[]models.PaymentStatus{models.StatusPending}, models.StatusUnderReview, nil)
		require.NoError(t, err)
		require.True(t, ok)
		ids = append(ids, p.ID)
	}
	seedCheckout(t, r, "PV-1-STILL", "u1", 100)

	page, total, err := r.ListPaymentsByStatus(ctx, models.StatusUnderReview, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 2)
	for _, p := range page {
		assert.Contains(t, ids, p.ID)
		require.NotNil(t, p.Order)
		assert.Equal(t, p.OrderID, p.Order.ID)
	}

	rest, _, err := r.ListPaymentsByStatus(ctx, models.StatusUnderReview, 2, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}

func TestListOrdersAndLatestPayments(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	a, pa := seedCheckout(t, r, "PV-1-A", "u1", 100)
	b, _ := seedCheckout(t, r, "PV-1-B", "u2", 200)

	mine, total, err := r.ListOrders(ctx, "u1", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, mine, 1)
	assert.Equal(t, a.ID, mine[0].ID)
	assert.Len(t, mine[0].Items, 1)

	all, total, err := r.ListOrders(ctx, "", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)

	latest, err := r.LatestPayments(ctx, []string{a.ID, b.ID, "ghost"})
	require.NoError(t, err)
	assert.Len(t, latest, 2)
	assert.Equal(t, pa.ID, latest[a.ID].ID)

	empty, err := r.LatestPayments(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDeleteOrderCascade(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	order, payment := seedCheckout(t, r, "PV-1-DEL", "u1", 100, 200)
	other, _ := seedCheckout(t, r, "PV-1-KEEP", "u1", 100)

	removed, err := r.DeleteOrderCascade(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = r.GetOrder(ctx, order.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = r.GetPayment(ctx, payment.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var items int64
	require.NoError(t, r.DB.Model(&models.OrderItem{}).Where("order_id = ?", order.ID).Count(&items).Error)
	assert.Zero(t, items)

	_, err = r.GetOrder(ctx, other.ID)
	require.NoError(t, err)

	_, err = r.DeleteOrderCascade(ctx, order.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestConfigSeedAndUpdate(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	defaults := models.PaymentConfig{UpiID: "playvault@fampay", PayeeName: "PlayVault"}

	cfg, err := r.GetOrCreateConfig(ctx, defaults)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentConfigID, cfg.ID)
	assert.Equal(t, "playvault@fampay", cfg.UpiID)

	// defaults only apply to the first read
	cfg, err = r.GetOrCreateConfig(ctx, models.PaymentConfig{UpiID: "other@bank", PayeeName: "Other"})
	require.NoError(t, err)
	assert.Equal(t, "playvault@fampay", cfg.UpiID)

	cfg, err = r.UpdateConfig(ctx, "shop@okaxis", "Shop")
	require.NoError(t, err)
	assert.Equal(t, "shop@okaxis", cfg.UpiID)
	assert.Equal(t, "Shop", cfg.PayeeName)

	var rows int64
	require.NoError(t, r.DB.Model(&models.PaymentConfig{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestUpdateConfigWithoutSeed(t *testing.T) {
	r := newTestRepo(t)

	cfg, err := r.UpdateConfig(context.Background(), "shop@okaxis", "Shop")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentConfigID, cfg.ID)
	assert.Equal(t, "shop@okaxis", cfg.UpiID)
}

func TestStats(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	paid, _ := seedCheckout(t, r, "PV-1-S1", "u1", 1000, 250)
	_, review := seedCheckout(t, r, "PV-1-S2", "u1", 300)
	seedCheckout(t, r, "PV-1-S3", "u2", 400)

	_, err := r.MarkOrderPaid(ctx, paid.ID, time.Now().UTC())
	require.NoError(t, err)
	_, err = r.TransitionPayment(ctx, review.ID, []models.PaymentStatus{models.StatusPending}, models.StatusUnderReview, nil)
	require.NoError(t, err)

	s, err := r.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), s.TotalOrders)
	assert.Equal(t, int64(1), s.PaidOrders)
	assert.Equal(t, int64(1), s.PendingReview)
	assert.True(t, s.Revenue.Equal(decimal.NewFromInt(1250)), s.Revenue.String())
}

func TestFindIncompleteApprovals(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	success := []models.PaymentStatus{models.StatusPending}

	done, pDone := seedCheckout(t, r, "PV-1-DONE", "u1", 100)
	_, err := r.TransitionPayment(ctx, pDone.ID, success, models.StatusSuccess, nil)
	require.NoError(t, err)
	_, err = r.MarkOrderPaid(ctx, done.ID, time.Now().UTC())
	require.NoError(t, err)
	_, err = r.ClaimStockReconciliation(ctx, done.ID)
	require.NoError(t, err)

	half, pHalf := seedCheckout(t, r, "PV-1-HALF", "u1", 100)
	_, err = r.TransitionPayment(ctx, pHalf.ID, success, models.StatusSuccess, nil)
	require.NoError(t, err)
	_, err = r.MarkOrderPaid(ctx, half.ID, time.Now().UTC())
	require.NoError(t, err)

	seedCheckout(t, r, "PV-1-OPEN", "u1", 100)

	got, err := r.FindIncompleteApprovals(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, pHalf.ID, got[0].ID)
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm sentinel", fmt.Errorf("create: %w", gorm.ErrDuplicatedKey), true},
		{"sqlite", errors.New("constraint failed: UNIQUE constraint failed: orders.order_number (2067)"), true},
		{"postgres", errors.New(`ERROR: duplicate key value violates unique constraint "idx_orders_order_number"`), true},
		{"other", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsUniqueViolation(tt.err))
		})
	}
}
