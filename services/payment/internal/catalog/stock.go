// Package catalog reconciles catalog inventory with confirmed sales.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/playvault/services/payment/internal/models"
)

type Result string

const (
	ResultDeducted Result = "deducted"
	ResultFloored  Result = "floored"
	ResultMissing  Result = "missing"
	ResultError    Result = "error"
)

type GormStore struct {
	DB *gorm.DB
}

func (s *GormStore) AutoMigrate(ctx context.Context) error {
	return s.DB.WithContext(ctx).AutoMigrate(&models.Game{})
}

// FindGame reports ok=false instead of an error when the game does not exist.
func (s *GormStore) FindGame(ctx context.Context, id string) (*models.Game, bool, error) {
	var g models.Game
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&g).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &g, true, nil
}

// DecrementStock removes one unit of the game, never going below zero. A game that no
// longer exists is not an error.
func (s *GormStore) DecrementStock(ctx context.Context, gameID string) (Result, error) {
	res := s.DB.WithContext(ctx).
		Model(&models.Game{}).
		Where("id = ? AND count_in_stock > 0", gameID).
		UpdateColumn("count_in_stock", gorm.Expr("count_in_stock - 1"))
	if res.Error != nil {
		return ResultError, fmt.Errorf("decrement stock %s: %w", gameID, res.Error)
	}
	if res.RowsAffected > 0 {
		return ResultDeducted, nil
	}

	_, ok, err := s.FindGame(ctx, gameID)
	if err != nil {
		return ResultError, fmt.Errorf("decrement stock %s: %w", gameID, err)
	}
	if !ok {
		return ResultMissing, nil
	}
	return ResultFloored, nil
}
