package transport

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/playvault/services/payment/internal/models"
)

type CheckoutItem struct {
	Title string          `json:"title"`
	Price decimal.Decimal `json:"price"`
	Game  string          `json:"game"`
}

type CreateCheckoutRequest struct {
	OrderItems []CheckoutItem  `json:"orderItems"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

type CheckoutResponse struct {
	PaymentID  string          `json:"paymentId"`
	OrderID    string          `json:"orderId"`
	OrderRef   string          `json:"orderRef"`
	QRImage    string          `json:"qrImage"`
	PaymentURI string          `json:"paymentUri"`
	UpiID      string          `json:"upiId"`
	PayeeName  string          `json:"payeeName"`
	Amount     decimal.Decimal `json:"amount"`
}

type VerifyRequest struct {
	PaymentID     string `json:"paymentId"`
	TransactionID string `json:"transactionId"`
}

type ConfigRequest struct {
	UpiID     string `json:"upiId"`
	PayeeName string `json:"payeeName"`
}

type ReviewResponse struct {
	Message string          `json:"message"`
	Payment *models.Payment `json:"payment"`
}

type ReconcileResponse struct {
	Completed int `json:"completed"`
}

type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
}

// OrderView is an order together with its latest payment, as shown to its buyer.
type OrderView struct {
	models.Order
	Payment *models.Payment `json:"payment,omitempty"`
}

type AdminOrderView struct {
	models.Order
	PaymentStatus string `json:"paymentStatus"`
	PaymentMethod string `json:"paymentMethodDetail"`
	TransactionID string `json:"transactionId"`
}

type Receipt struct {
	OrderNumber   string
	OrderRef      string
	UserID        string
	Items         []models.OrderItem
	TotalPrice    decimal.Decimal
	PaidAt        time.Time
	PaymentMethod string
	TransactionID string
	PayeeName     string
}
