package config

import (
	"fmt"
	"os"
	"strings"
)

// Paystack publishes the source IPs its webhooks originate from. These are
// the defaults; PAYSTACK_WEBHOOK_IPS overrides them without a redeploy.
var defaultWebhookIPs = []string{
	"52.31.139.75",
	"52.49.173.169",
	"52.214.14.220",
}

type PaystackConfig struct {
	SecretKey     string
	WebhookSecret string
	BaseURL       string
	WebhookIPs    []string
}

// LoadPaystackConfig reads the gateway configuration from the environment.
// The secret key doubles as the webhook HMAC secret unless
// PAYSTACK_WEBHOOK_SECRET sets a separate one.
func LoadPaystackConfig() (PaystackConfig, error) {
	secret := strings.TrimSpace(os.Getenv("PAYSTACK_SECRET_KEY"))
	if secret == "" {
		return PaystackConfig{}, fmt.Errorf("PAYSTACK_SECRET_KEY is not set")
	}

	cfg := PaystackConfig{
		SecretKey:     secret,
		WebhookSecret: envOrDefault("PAYSTACK_WEBHOOK_SECRET", secret),
		BaseURL:       envOrDefault("PAYSTACK_BASE_URL", "https://api.paystack.co"),
		WebhookIPs:    defaultWebhookIPs,
	}

	if raw := strings.TrimSpace(os.Getenv("PAYSTACK_WEBHOOK_IPS")); raw != "" {
		ips := make([]string, 0)
		for _, part := range strings.Split(raw, ",") {
			ip := strings.TrimSpace(part)
			if ip != "" {
				ips = append(ips, ip)
			}
		}
		if len(ips) > 0 {
			cfg.WebhookIPs = ips
		}
	}

	return cfg, nil
}
