// Package app собирает витрину: зависимости, HTTP-поверхность, метрики и
// graceful-остановку.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/storefront/internal/health"
	"github.com/vladislavdragonenkov/storefront/internal/service/web"
	"github.com/vladislavdragonenkov/storefront/internal/version"
)

// Config описывает настройки запуска приложения.
type Config struct {
	// HTTPAddr — адрес HTTP-поверхности витрины.
	HTTPAddr string
	// MetricsAddr — адрес сервера метрик и health-проверок.
	MetricsAddr string
	// APIBaseURL — базовый URL storefront-backend, включая префикс /api.
	APIBaseURL string
	// Environment — имя окружения для интроспекции конфигурации.
	Environment string
	// KafkaBrokers — список брокеров через запятую; пустой отключает аналитику.
	KafkaBrokers string
	// StripeKey — ключ Stripe для встроенного подтверждения карт;
	// пустой отключает карточный путь, остаётся hosted checkout.
	StripeKey string
	// SettingsPath — путь к TOML-файлу пользовательских настроек.
	SettingsPath string
	// SessionTTL — срок жизни бездействующей браузерной сессии.
	SessionTTL time.Duration
}

// DefaultConfig возвращает базовые настройки витрины.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:     ":3000",
		MetricsAddr:  ":9090",
		APIBaseURL:   "http://localhost:8080/api",
		Environment:  "development",
		SettingsPath: "storefront-settings.toml",
		SessionTTL:   2 * time.Hour,
	}
}

// Run запускает витрину и блокируется до отмены ctx или фатальной ошибки.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps := NewDependencies(cfg, logger)

	kafkaProducer, err := initKafkaProducer(cfg.KafkaBrokers, logger)
	if err != nil {
		// Аналитика не критична для оформления заказов.
		logger.WithError(err).Warn("starting without checkout analytics")
	}
	sink := createEventSink(kafkaProducer)

	sessions := web.NewSessionManager(
		createSessionFactory(deps, sink),
		web.WithManagerLogger(deps.Logger.WithField("component", "session-manager")),
		web.WithSessionTTL(cfg.SessionTTL),
	)
	go sessions.Run(ctx)

	server := web.NewServer(deps.Catalog, sessions, deps.Settings, web.ConfigInfo{
		BaseURL:        cfg.APIBaseURL,
		Environment:    cfg.Environment,
		Version:        version.GetVersion(),
		TimeoutSeconds: 30,
	}, deps.Logger.WithField("component", "web"))

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	healthHandler.RegisterChecker("backend", healthcheck.NewBackendChecker(deps.Gateway))

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: server.Routes()}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("storefront HTTP сервер слушает %s", cfg.HTTPAddr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP сервер")
		shutdownHTTP(httpSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		closeKafka(kafkaProducer, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		closeKafka(kafkaProducer, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
