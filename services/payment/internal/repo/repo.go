package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/playvault/services/payment/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) AutoMigrate(ctx context.Context) error {
	return r.DB.WithContext(ctx).AutoMigrate(
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.PaymentConfig{},
	)
}

// IsUniqueViolation reports whether err comes from a unique constraint, whichever driver
// produced it.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
