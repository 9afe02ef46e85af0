package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/app"
)

// Переменные окружения, переопределяющие конфигурацию по умолчанию.
const (
	envHTTPAddr     = "STOREFRONT_HTTP_ADDR"
	envMetricsAddr  = "STOREFRONT_METRICS_ADDR"
	envAPIBaseURL   = "STOREFRONT_API_BASE_URL"
	envEnvironment  = "STOREFRONT_ENV"
	envKafkaBrokers = "KAFKA_BROKERS"
	envStripeKey    = "STRIPE_SECRET_KEY"
	envSettingsPath = "STOREFRONT_SETTINGS_PATH"
	envSessionTTL   = "STOREFRONT_SESSION_TTL"
)

// envLookup абстрагирует os.LookupEnv для тестов.
type envLookup func(key string) (string, bool)

// setupLogger настраивает формат и уровень логирования.
func setupLogger() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)
}

// readConfigFromEnv формирует конфигурацию приложения из переменных окружения.
// Некорректные значения не прерывают запуск: остаётся значение по умолчанию,
// а замечание попадает в warnings.
func readConfigFromEnv(lookup envLookup) (app.Config, []string) {
	cfg := app.DefaultConfig()
	var warnings []string

	if v, ok := lookup(envHTTPAddr); ok && strings.TrimSpace(v) != "" {
		cfg.HTTPAddr = strings.TrimSpace(v)
	}
	if v, ok := lookup(envMetricsAddr); ok && strings.TrimSpace(v) != "" {
		cfg.MetricsAddr = strings.TrimSpace(v)
	}
	if v, ok := lookup(envAPIBaseURL); ok && strings.TrimSpace(v) != "" {
		cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(v), "/")
	}
	if v, ok := lookup(envEnvironment); ok && strings.TrimSpace(v) != "" {
		cfg.Environment = strings.TrimSpace(v)
	}
	if v, ok := lookup(envKafkaBrokers); ok {
		cfg.KafkaBrokers = strings.TrimSpace(v)
	}
	if v, ok := lookup(envStripeKey); ok {
		cfg.StripeKey = strings.TrimSpace(v)
	}
	if v, ok := lookup(envSettingsPath); ok && strings.TrimSpace(v) != "" {
		cfg.SettingsPath = strings.TrimSpace(v)
	}
	if v, ok := lookup(envSessionTTL); ok {
		ttl, err := parseDuration(v, func(d time.Duration) bool { return d > 0 }, "must be > 0")
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", envSessionTTL, err))
		} else {
			cfg.SessionTTL = ttl
		}
	}

	return cfg, warnings
}

// parseDuration разбирает длительность с дополнительной проверкой.
func parseDuration(raw string, valid func(time.Duration) bool, rule string) (time.Duration, error) {
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}
	if !valid(value) {
		return 0, fmt.Errorf("duration %q %s", raw, rule)
	}
	return value, nil
}

func main() {
	setupLogger()

	cfg, warnings := readConfigFromEnv(os.LookupEnv)
	for _, warning := range warnings {
		log.Warn(warning)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"http_addr":    cfg.HTTPAddr,
		"metrics_addr": cfg.MetricsAddr,
		"api_base_url": cfg.APIBaseURL,
		"environment":  cfg.Environment,
	}).Info("запускаем storefront")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("storefront остановлен")
}
