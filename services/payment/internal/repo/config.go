package repo

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/playvault/services/payment/internal/models"
)

// GetOrCreateConfig returns the singleton payment configuration, seeding it with defaults on
// first read.
func (r *GormRepo) GetOrCreateConfig(ctx context.Context, defaults models.PaymentConfig) (*models.PaymentConfig, error) {
	var cfg models.PaymentConfig
	err := r.DB.WithContext(ctx).
		Where(models.PaymentConfig{ID: models.PaymentConfigID}).
		Attrs(models.PaymentConfig{UpiID: defaults.UpiID, PayeeName: defaults.PayeeName}).
		FirstOrCreate(&cfg).Error
	if err == nil {
		return &cfg, nil
	}
	if !IsUniqueViolation(err) {
		return nil, err
	}

	// a concurrent first read seeded it
	if err := r.DB.WithContext(ctx).Where("id = ?", models.PaymentConfigID).First(&cfg).Error; err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *GormRepo) UpdateConfig(ctx context.Context, upiID, payeeName string) (*models.PaymentConfig, error) {
	cfg := models.PaymentConfig{ID: models.PaymentConfigID, UpiID: upiID, PayeeName: payeeName}
	err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"upi_id", "payee_name", "updated_at"}),
		}).
		Create(&cfg).Error
	if err != nil {
		return nil, err
	}

	if err := r.DB.WithContext(ctx).Where("id = ?", models.PaymentConfigID).First(&cfg).Error; err != nil {
		return nil, err
	}
	return &cfg, nil
}
