package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Skotchmaster/playvault/pkg/logging"
	"github.com/Skotchmaster/playvault/services/payment/internal/models"
	"github.com/Skotchmaster/playvault/services/payment/internal/transport"
)

var upiIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{2,256}@[A-Za-z][A-Za-z0-9.-]{1,63}$`)

// GetConfig returns the payment configuration, seeding the defaults on first use. The cache
// is consulted first; a cache outage only costs a database read.
func (s *PaymentService) GetConfig(ctx context.Context) (*models.PaymentConfig, error) {
	l := logging.FromContext(ctx)

	if s.Cache != nil {
		cfg, err := s.Cache.Get(ctx)
		if err != nil {
			l.Warnw("config_cache_get_failed", "error", err)
		} else if cfg != nil {
			return cfg, nil
		}
	}

	cfg, err := s.Repo.GetOrCreateConfig(ctx, models.PaymentConfig{
		UpiID:     s.Settings.DefaultPayee.UpiID,
		PayeeName: s.Settings.DefaultPayee.PayeeName,
	})
	if err != nil {
		return nil, storeErr("payment config", err)
	}

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, cfg); err != nil {
			l.Warnw("config_cache_set_failed", "error", err)
		}
	}
	return cfg, nil
}

func (s *PaymentService) UpdateConfig(ctx context.Context, req transport.ConfigRequest) (*models.PaymentConfig, error) {
	upiID := strings.TrimSpace(req.UpiID)
	payee := strings.TrimSpace(req.PayeeName)
	if upiID == "" || payee == "" {
		return nil, fmt.Errorf("%w: upiId and payeeName are required", ErrValidation)
	}
	if !upiIDPattern.MatchString(upiID) {
		return nil, fmt.Errorf("%w: upiId must look like handle@provider", ErrValidation)
	}

	cfg, err := s.Repo.UpdateConfig(ctx, upiID, payee)
	if err != nil {
		return nil, storeErr("update payment config", err)
	}

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, cfg); err != nil {
			logging.FromContext(ctx).Warnw("config_cache_set_failed", "error", err)
			if err := s.Cache.Invalidate(ctx); err != nil {
				logging.FromContext(ctx).Warnw("config_cache_invalidate_failed", "error", err)
			}
		}
	}
	return cfg, nil
}
