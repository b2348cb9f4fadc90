package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	pkgconfig "github.com/Skotchmaster/playvault/pkg/config"
	"github.com/Skotchmaster/playvault/pkg/db"
	"github.com/Skotchmaster/playvault/pkg/events"
	"github.com/Skotchmaster/playvault/pkg/logging"
	"github.com/Skotchmaster/playvault/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/playvault/pkg/middleware/logging"
	"github.com/Skotchmaster/playvault/services/payment/internal/cache"
	"github.com/Skotchmaster/playvault/services/payment/internal/catalog"
	"github.com/Skotchmaster/playvault/services/payment/internal/config"
	"github.com/Skotchmaster/playvault/services/payment/internal/httpserver"
	"github.com/Skotchmaster/playvault/services/payment/internal/metrics"
	"github.com/Skotchmaster/playvault/services/payment/internal/orderid"
	"github.com/Skotchmaster/playvault/services/payment/internal/repo"
	"github.com/Skotchmaster/playvault/services/payment/internal/service"
	"github.com/Skotchmaster/playvault/services/payment/internal/upi"
)

func main() {
	pkgconfig.LoadEnvFile()
	cfg := config.Load()

	log := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	defer func() { _ = log.Sync() }()
	ctx := logging.IntoContext(context.Background(), log)

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalw("db init error", "error", err)
	}

	ledger := &repo.GormRepo{DB: gdb}
	stock := &catalog.GormStore{DB: gdb}
	if err := ledger.AutoMigrate(ctx); err != nil {
		log.Fatalw("migrate ledger", "error", err)
	}
	if err := stock.AutoMigrate(ctx); err != nil {
		log.Fatalw("migrate catalog", "error", err)
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		p, err := events.NewAsyncProducer(cfg.KafkaBrokers, func(err error, messages int) {
			log.Warnw("publish_event_failed", "messages", messages, "error", err)
		})
		if err != nil {
			log.Fatalw("kafka producer", "error", err)
		}
		publisher = p
	} else {
		log.Infow("kafka disabled, payment events are dropped")
	}
	defer func() { _ = publisher.Close() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := &service.PaymentService{
		Repo:    ledger,
		Stock:   stock,
		IDs:     orderid.New(cfg.OrderIDPrefix),
		QR:      upi.NewBuilder(cfg.QRSize),
		Events:  publisher,
		Metrics: metrics.New(reg),
		Settings: service.Settings{
			ReceiptBaseURL: cfg.PublicBaseURL,
			EventsTopic:    cfg.EventsTopic,
			DefaultPayee:   cfg.DefaultPayee(),
		},
	}

	if cfg.RedisAddr != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Warnw("redis unavailable, config cache disabled", "error", err)
		} else {
			defer func() { _ = rdb.Close() }()
			svc.Cache = cache.NewConfigCache(rdb)
		}
	}

	if n, err := svc.ResumeApproved(ctx); err != nil {
		log.Warnw("resume approvals", "completed", n, "error", err)
	} else if n > 0 {
		log.Infow("resumed approvals", "completed", n)
	}

	e := echo.New()
	e.HideBanner = true

	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Use(middleware.RequestID())
	e.Use(loggingmw.RequestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	httpserver.Register(e, &httpserver.Deps{
		Handler:   &httpserver.PaymentHTTP{Svc: svc, Gateway: &service.ReviewGateway{Svc: svc}},
		JWTSecret: cfg.JWTAccessSecret,
		Ready: func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CSRF:    csrf.Middleware(csrf.Config{Secure: strings.HasPrefix(cfg.PublicBaseURL, "https://")}),
	})

	addr := ":" + strconv.Itoa(cfg.ServerPort)
	go func() {
		log.Infow("starting payment service", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("echo start", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Infow("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Warnw("echo shutdown", "error", err)
	}

	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Infow("server stopped")
}
