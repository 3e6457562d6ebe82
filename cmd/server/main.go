package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore_checkout/internal/catalog"
	"github.com/Skotchmaster/bookstore_checkout/internal/httpserver"
	"github.com/Skotchmaster/bookstore_checkout/internal/middleware/csrf"
	"github.com/Skotchmaster/bookstore_checkout/internal/models"
	"github.com/Skotchmaster/bookstore_checkout/internal/notify"
	"github.com/Skotchmaster/bookstore_checkout/internal/otp"
	"github.com/Skotchmaster/bookstore_checkout/internal/payu"
	"github.com/Skotchmaster/bookstore_checkout/internal/repo"
	"github.com/Skotchmaster/bookstore_checkout/internal/service"
	"github.com/Skotchmaster/bookstore_checkout/internal/session"
	"github.com/Skotchmaster/bookstore_checkout/internal/shipping"
	"github.com/Skotchmaster/bookstore_checkout/internal/webhook"
	"github.com/Skotchmaster/bookstore_checkout/pkg/config"
	pkgdb "github.com/Skotchmaster/bookstore_checkout/pkg/db"
	"github.com/Skotchmaster/bookstore_checkout/pkg/events"
	"github.com/Skotchmaster/bookstore_checkout/pkg/logging"
	loggingmw "github.com/Skotchmaster/bookstore_checkout/pkg/middleware/logging"
	"github.com/Skotchmaster/bookstore_checkout/pkg/redisx"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := config.Load()
	config.MustCheckout(cfg)

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	rdb, err := redisx.Open(context.Background(), cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis open: %v", err)
	}

	var publisher events.Publisher = events.Nop{}
	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers)
		publisher = producer
	} else {
		logger.Warn("kafka_disabled", "reason", "KAFKA_BROKERS not set")
	}

	store := &repo.GormRepo{DB: db}
	sessions := session.NewStore(rdb, cfg.SessionTTL)
	sessionManager := &session.Manager{
		Store:  sessions,
		Secret: cfg.SessionSecret,
		TTL:    cfg.SessionTTL,
		Secure: cfg.SessionCookieSecure,
	}

	var mailer *notify.Mailer
	if cfg.Mailer.APIKey != "" {
		mailer = notify.NewMailer(cfg.Mailer.BaseURL, cfg.Mailer.APIKey, cfg.Mailer.From)
	}
	var sms *notify.SMS
	if cfg.Fast2SMS.APIKey != "" {
		sms = notify.NewSMS(cfg.Fast2SMS.URL, cfg.Fast2SMS.APIKey)
	}
	var whatsapp *notify.WhatsApp
	if cfg.WhatsApp.Token != "" && cfg.WhatsApp.PhoneID != "" {
		whatsapp = notify.NewWhatsApp(cfg.WhatsApp.APIURL, cfg.WhatsApp.Token, cfg.WhatsApp.PhoneID)
	}

	senders := map[models.VerificationChannel]otp.Sender{}
	if mailer != nil {
		senders[models.ChannelEmail] = notify.EmailCodeSender{Mailer: mailer, StoreName: cfg.StoreName}
	}
	if sms != nil {
		senders[models.ChannelSMS] = sms
	}
	if whatsapp != nil {
		senders[models.ChannelWhatsApp] = whatsapp
	}

	dispatcher := notify.NewDispatcher(nil, nil, cfg.AdminOrderEmail, cfg.StoreName)
	if mailer != nil {
		dispatcher.Mail = mailer
	}
	switch {
	case cfg.CustomerNotifyChannel == "whatsapp" && whatsapp != nil:
		dispatcher.Customer = whatsapp
	case sms != nil:
		dispatcher.Customer = sms
	}

	checkoutSvc := &service.CheckoutService{
		Orders:   store,
		Gateway:  payu.Gateway{Key: cfg.PayU.Key, Salt: cfg.PayU.Salt, TestMode: cfg.PayU.TestMode},
		Notifier: dispatcher,
		Sessions: sessions,
		Events:   publisher,
		Topic:    cfg.KafkaOrderTopic,
		BaseURL:  cfg.BaseURL,
	}
	if cfg.Shiprocket.Email != "" && cfg.Shiprocket.Password != "" {
		checkoutSvc.Shipper = shipping.NewClient(shipping.Config{
			BaseURL:        cfg.Shiprocket.BaseURL,
			Email:          cfg.Shiprocket.Email,
			Password:       cfg.Shiprocket.Password,
			PickupLocation: cfg.Shiprocket.PickupLocation,
			PickupPincode:  cfg.Shiprocket.PickupPincode,
			ChannelID:      cfg.Shiprocket.ChannelID,
		})
	} else {
		logger.Warn("shiprocket_disabled", "reason", "credentials not set")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	if len(cfg.CORSOrigins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins:     cfg.CORSOrigins,
			AllowCredentials: true,
		}))
	} else {
		e.Use(echomw.CORS())
	}

	var csrfMW echo.MiddlewareFunc
	if cfg.CSRFEnabled {
		csrfMW = csrf.Middleware(csrf.Config{
			Secure:         cfg.SessionCookieSecure,
			TrustedOrigins: cfg.CORSOrigins,
		})
	}

	httpserver.Register(e, &httpserver.Deps{
		CartHandler:         &httpserver.CartHTTP{Svc: &service.CartService{}},
		VerificationHandler: &httpserver.VerificationHTTP{Svc: &service.VerificationService{OTP: otp.NewService(store, senders)}},
		CheckoutHandler:     &httpserver.CheckoutHTTP{Svc: checkoutSvc},
		CatalogHandler:      &httpserver.CatalogHTTP{Registry: catalog.NewRegistry(db)},
		WebhookHandler: &webhook.Handler{
			Secret: cfg.Shiprocket.WebhookSecret,
			Sink:   &webhook.StoreSink{Store: store, Publisher: publisher, Topic: cfg.KafkaShipmentTopic},
		},
		Session: sessionManager.Middleware(),
		CSRF:    csrfMW,
		Ready: map[string]func(context.Context) error{
			"db":    func(ctx context.Context) error { return pingDB(ctx, db) },
			"redis": sessions.Ping,
		},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka_close_error", "error", err)
		}
	}
	if err := rdb.Close(); err != nil {
		logger.Error("redis_close_error", "error", err)
	}
	if err := pkgdb.Close(db); err != nil {
		logger.Error("db_close_error", "error", err)
	}

	logger.Info("stopped")
}

func pingDB(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
