package config

import "log"

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustNonEmptyBytes(value []byte, envName string) {
	if len(value) == 0 {
		log.Fatalf("missing required env %s", envName)
	}
}

// MustCheckout stops the process when a setting the checkout flow cannot run without is empty.
func MustCheckout(cfg Config) {
	MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	MustNonEmptyBytes(cfg.SessionSecret, "SESSION_SECRET")
	MustNonEmpty(cfg.PayU.Key, "PAYU_KEY")
	MustNonEmpty(cfg.PayU.Salt, "PAYU_SALT")
}
