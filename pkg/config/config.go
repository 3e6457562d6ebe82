package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string
	BaseURL     string
	CORSOrigins []string

	DatabaseURL string
	RedisURL    string

	SessionSecret       []byte
	SessionTTL          time.Duration
	SessionCookieSecure bool
	CSRFEnabled         bool

	KafkaBrokers       []string
	KafkaOrderTopic    string
	KafkaShipmentTopic string

	PayU       PayU
	Shiprocket Shiprocket
	Fast2SMS   Fast2SMS
	WhatsApp   WhatsApp
	Mailer     Mailer

	AdminOrderEmail       string
	CustomerNotifyChannel string
	StoreName             string
}

type PayU struct {
	Key      string
	Salt     string
	TestMode bool
}

type Shiprocket struct {
	Email          string
	Password       string
	BaseURL        string
	PickupLocation string
	PickupPincode  string
	ChannelID      string
	WebhookSecret  string
}

type Fast2SMS struct {
	APIKey string
	URL    string
}

type WhatsApp struct {
	Token   string
	PhoneID string
	APIURL  string
}

type Mailer struct {
	APIKey  string
	From    string
	BaseURL string
}

func Load() Config {
	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "bookstore-checkout"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),
		BaseURL:     strings.TrimRight(EnvDefault("BASE_URL", "http://localhost:8080"), "/"),
		CORSOrigins: CSV(os.Getenv("CORS_ORIGINS")),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    EnvDefault("REDIS_URL", "redis://localhost:6379/0"),

		SessionSecret:       []byte(os.Getenv("SESSION_SECRET")),
		SessionTTL:          time.Duration(EnvIntDefault("SESSION_TTL_HOURS", 14*24)) * time.Hour,
		SessionCookieSecure: EnvBool("SESSION_COOKIE_SECURE", false),
		CSRFEnabled:         EnvBool("CSRF_ENABLED", true),

		KafkaBrokers:       CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaOrderTopic:    EnvDefault("KAFKA_ORDER_TOPIC", "order_events"),
		KafkaShipmentTopic: EnvDefault("KAFKA_SHIPMENT_TOPIC", "shipment_events"),

		PayU: PayU{
			Key:      os.Getenv("PAYU_KEY"),
			Salt:     os.Getenv("PAYU_SALT"),
			TestMode: EnvBool("PAYU_TEST_MODE", true),
		},
		Shiprocket: Shiprocket{
			Email:          os.Getenv("SHIPROCKET_EMAIL"),
			Password:       os.Getenv("SHIPROCKET_PASSWORD"),
			BaseURL:        EnvDefault("SHIPROCKET_BASE_URL", "https://apiv2.shiprocket.in/v1/external"),
			PickupLocation: EnvDefault("SHIPROCKET_PICKUP_LOCATION", "Primary"),
			PickupPincode:  os.Getenv("SHIPROCKET_PICKUP_PINCODE"),
			ChannelID:      os.Getenv("SHIPROCKET_CHANNEL_ID"),
			WebhookSecret:  os.Getenv("SHIPROCKET_WEBHOOK_SECRET"),
		},
		Fast2SMS: Fast2SMS{
			APIKey: os.Getenv("FAST2SMS_API_KEY"),
			URL:    EnvDefault("FAST2SMS_URL", "https://www.fast2sms.com/dev/bulkV2"),
		},
		WhatsApp: WhatsApp{
			Token:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneID: os.Getenv("WHATSAPP_PHONE_ID"),
			APIURL:  EnvDefault("WHATSAPP_API_URL", "https://graph.facebook.com/v18.0"),
		},
		Mailer: Mailer{
			APIKey:  os.Getenv("MAILER_API_KEY"),
			From:    EnvDefault("MAILER_FROM", "orders@localhost"),
			BaseURL: EnvDefault("MAILER_BASE_URL", "https://api.resend.com"),
		},

		AdminOrderEmail:       os.Getenv("ADMIN_ORDER_EMAIL"),
		CustomerNotifyChannel: strings.ToLower(EnvDefault("CUSTOMER_NOTIFY_CHANNEL", "sms")),
		StoreName:             EnvDefault("STORE_NAME", "Bookstore"),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if os.Getenv(key) != "" {
		return os.Getenv(key)
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
