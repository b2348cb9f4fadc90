package config

import (
	"github.com/Skotchmaster/playvault/pkg/config"
	"github.com/Skotchmaster/playvault/services/payment/internal/orderid"
	"github.com/Skotchmaster/playvault/services/payment/internal/upi"
)

type ServiceConfig struct {
	config.Config

	EventsTopic      string
	PublicBaseURL    string
	OrderIDPrefix    string
	DefaultUpiID     string
	DefaultPayeeName string
	QRSize           int
}

// FromEnv reads the configuration without enforcing required values.
func FromEnv() ServiceConfig {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "payment"
	}

	return ServiceConfig{
		Config:           cfg,
		EventsTopic:      config.EnvDefault("PAYMENT_EVENTS_TOPIC", "payment_events"),
		PublicBaseURL:    config.EnvDefault("PUBLIC_BASE_URL", "http://localhost:8080/api/v1"),
		OrderIDPrefix:    config.EnvDefault("ORDER_ID_PREFIX", orderid.DefaultPrefix),
		DefaultUpiID:     config.EnvDefault("DEFAULT_UPI_ID", "playvault@fampay"),
		DefaultPayeeName: config.EnvDefault("DEFAULT_PAYEE_NAME", "PlayVault"),
		QRSize:           config.EnvIntDefault("QR_SIZE", upi.DefaultSize),
	}
}

func Load() ServiceConfig {
	cfg := FromEnv()

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")

	return cfg
}

func (c ServiceConfig) DefaultPayee() upi.Payee {
	return upi.Payee{UpiID: c.DefaultUpiID, PayeeName: c.DefaultPayeeName}
}
