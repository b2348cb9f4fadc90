package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	StatusPending     PaymentStatus = "PENDING"
	StatusUnderReview PaymentStatus = "UNDER_REVIEW"
	StatusSuccess     PaymentStatus = "success"
	StatusFailed      PaymentStatus = "failed"
	StatusCancelled   PaymentStatus = "cancelled"
)

// Open reports whether the payment still awaits a decision.
func (s PaymentStatus) Open() bool {
	return s == StatusPending || s == StatusUnderReview
}

func (s PaymentStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

type PaymentMethod string

const (
	MethodQR     PaymentMethod = "UPI-QR"
	MethodDirect PaymentMethod = "UPI"
)

type OrderItem struct {
	ID      string          `gorm:"primaryKey;size:36"              json:"id"`
	OrderID string          `gorm:"index;size:36;not null"          json:"-"`
	Title   string          `gorm:"not null"                        json:"title"`
	Price   decimal.Decimal `gorm:"type:numeric(12,2);not null"     json:"price"`
	GameID  string          `gorm:"size:64;not null"                json:"game"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

type Order struct {
	ID              string          `gorm:"primaryKey;size:36"                 json:"id"`
	OrderNumber     string          `gorm:"uniqueIndex;size:64;not null"       json:"orderId"`
	UserID          string          `gorm:"index;size:64;not null"             json:"user"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID"                 json:"orderItems"`
	TotalPrice      decimal.Decimal `gorm:"type:numeric(12,2);not null"        json:"totalPrice"`
	IsPaid          bool            `gorm:"not null;default:false"             json:"isPaid"`
	PaidAt          *time.Time      `                                          json:"paidAt,omitempty"`
	StockReconciled bool            `gorm:"not null;default:false"             json:"-"`
	PaymentMethod   PaymentMethod   `gorm:"size:32;not null"                   json:"paymentMethod"`
	PaymentID       *string         `gorm:"size:36"                            json:"paymentId,omitempty"`
	CreatedAt       time.Time       `                                          json:"createdAt"`
	UpdatedAt       time.Time       `                                          json:"updatedAt"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

type Payment struct {
	ID            string          `gorm:"primaryKey;size:36"                  json:"id"`
	UserID        string          `gorm:"index;size:64;not null"              json:"user"`
	OrderID       string          `gorm:"index;size:36;not null"              json:"order"`
	Order         *Order          `gorm:"foreignKey:OrderID"                  json:"orderDetails,omitempty"`
	Amount        decimal.Decimal `gorm:"type:numeric(12,2);not null"         json:"amount"`
	PaymentMethod PaymentMethod   `gorm:"size:32;not null"                    json:"paymentMethod"`
	PaymentStatus PaymentStatus   `gorm:"size:16;index;not null"              json:"paymentStatus"`
	TransactionID *string         `gorm:"size:128"                            json:"transactionId,omitempty"`
	ReceiptURL    *string         `                                           json:"receiptUrl,omitempty"`
	CreatedAt     time.Time       `                                           json:"createdAt"`
	UpdatedAt     time.Time       `                                           json:"updatedAt"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// PaymentConfigID is the primary key of the only PaymentConfig row.
const PaymentConfigID uint = 1

type PaymentConfig struct {
	ID        uint      `gorm:"primaryKey"    json:"-"`
	UpiID     string    `gorm:"not null"      json:"upiId"`
	PayeeName string    `gorm:"not null"      json:"payeeName"`
	CreatedAt time.Time `                     json:"createdAt"`
	UpdatedAt time.Time `                     json:"updatedAt"`
}

// Game is the catalog entry as seen by this service. Only CountInStock is ever written here.
type Game struct {
	ID           string          `gorm:"primaryKey;size:64"                  json:"id"`
	Title        string          `gorm:"not null"                            json:"title"`
	Price        decimal.Decimal `gorm:"type:numeric(12,2);not null"         json:"price"`
	CountInStock int             `gorm:"not null;check:count_in_stock >= 0"  json:"countInStock"`
	IsActive     bool            `gorm:"not null"                            json:"isActive"`
}
