// checkout-probe прогоняет сценарий оформления заказа против живого
// storefront-backend и печатает JSON-отчёт. Инструмент для smoke-проверки
// окружения: каталог, создание заказа, платёжные endpoints.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/backend"
	"github.com/vladislavdragonenkov/storefront/internal/cart"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type config struct {
	baseURL    string
	qty        int
	timeout    time.Duration
	hosted     bool
	outputPath string
	email      string
}

type stepResult struct {
	Step      string  `json:"step"`
	OK        bool    `json:"ok"`
	LatencyMs float64 `json:"latency_ms"`
	Detail    string  `json:"detail,omitempty"`
	Error     string  `json:"error,omitempty"`
}

type report struct {
	StartedAt       time.Time    `json:"started_at"`
	BaseURL         string       `json:"base_url"`
	DurationSeconds float64      `json:"duration_seconds"`
	OK              bool         `json:"ok"`
	OrderID         string       `json:"order_id,omitempty"`
	Steps           []stepResult `json:"steps"`
}

func parseFlags(args []string) (config, error) {
	cfg := config{}
	fs := flag.NewFlagSet("checkout-probe", flag.ContinueOnError)
	fs.StringVar(&cfg.baseURL, "base-url", "http://localhost:8080/api", "base URL of the storefront backend, including /api")
	fs.IntVar(&cfg.qty, "qty", 1, "quantity of the first catalog product to order")
	fs.DurationVar(&cfg.timeout, "timeout", 30*time.Second, "per-request timeout")
	fs.BoolVar(&cfg.hosted, "hosted", false, "probe the hosted checkout session endpoint instead of payment intents")
	fs.StringVar(&cfg.outputPath, "output", "", "write the JSON report to this file instead of stdout")
	fs.StringVar(&cfg.email, "email", "probe@example.com", "customer email used for the probe order")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	if cfg.qty < 1 {
		return config{}, fmt.Errorf("qty must be >= 1, got %d", cfg.qty)
	}
	return cfg, nil
}

func probeCustomer(email string) domain.CustomerInfo {
	return domain.CustomerInfo{
		Email:         email,
		FirstName:     "Probe",
		LastName:      "Runner",
		Address:       "1 Probe St",
		City:          "Testville",
		State:         "TS",
		ZipCode:       "00000",
		Country:       "US",
		SameAsBilling: true,
	}
}

type prober struct {
	gateway domain.BackendGateway
	cfg     config
	rep     *report
}

func (p *prober) step(name string, fn func() (string, error)) bool {
	start := time.Now()
	detail, err := fn()
	result := stepResult{
		Step:      name,
		OK:        err == nil,
		LatencyMs: float64(time.Since(start).Microseconds()) / 1000,
		Detail:    detail,
	}
	if err != nil {
		result.Error = err.Error()
		p.rep.OK = false
	}
	p.rep.Steps = append(p.rep.Steps, result)
	return err == nil
}

func (p *prober) run(ctx context.Context) {
	store := cart.NewStore()

	var products []domain.Product
	if !p.step("list products", func() (string, error) {
		var err error
		products, err = p.gateway.Products(ctx)
		if err != nil {
			return "", err
		}
		if len(products) == 0 {
			return "", fmt.Errorf("catalog is empty")
		}
		return fmt.Sprintf("%d products", len(products)), nil
	}) {
		return
	}

	if !p.step("fill cart", func() (string, error) {
		if err := store.Add(products[0], int32(p.cfg.qty)); err != nil {
			return "", err
		}
		return fmt.Sprintf("total minor %d", store.TotalMinor()), nil
	}) {
		return
	}

	var orderID string
	if !p.step("create order", func() (string, error) {
		ack, err := p.gateway.CreateOrder(ctx, domain.OrderDraft{
			Items:      store.Items(),
			TotalMinor: store.TotalMinor(),
			Customer:   probeCustomer(p.cfg.email),
			Timestamp:  time.Now().UTC(),
		})
		if err != nil {
			return "", err
		}
		if !ack.Success {
			return "", fmt.Errorf("backend rejected order: %s", ack.Message)
		}
		orderID = ack.OrderID
		p.rep.OrderID = orderID
		return "order " + orderID, nil
	}) {
		return
	}

	p.step("payment config", func() (string, error) {
		cfg, err := p.gateway.PaymentConfig(ctx)
		if err != nil {
			return "", err
		}
		if cfg.PublishableKey == "" {
			return "", fmt.Errorf("publishable key is empty")
		}
		return "key present", nil
	})

	if p.cfg.hosted {
		p.step("create checkout session", func() (string, error) {
			ack, err := p.gateway.CreateCheckoutSession(ctx, orderID)
			if err != nil {
				return "", err
			}
			if !ack.Success {
				return "", fmt.Errorf("backend rejected session: %s", ack.Message)
			}
			return ack.URL, nil
		})
	} else {
		p.step("create payment intent", func() (string, error) {
			ack, err := p.gateway.CreatePaymentIntent(ctx, orderID, store.TotalMinor(), "usd")
			if err != nil {
				return "", err
			}
			if !ack.Success {
				return "", fmt.Errorf("backend rejected intent: %s", ack.Message)
			}
			return "client secret present", nil
		})
	}

	p.step("fetch order", func() (string, error) {
		order, err := p.gateway.Order(ctx, orderID)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("total minor %d", order.TotalMinor), nil
	})
}

func writeReport(rep *report, outputPath string) error {
	raw, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	raw = append(raw, '\n')

	if outputPath == "" {
		_, err = os.Stdout.Write(raw)
		return err
	}
	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(outputPath, raw, 0o644)
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	logger := log.WithField("component", "checkout-probe")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.timeout*6)
	defer cancel()

	rep := &report{StartedAt: time.Now().UTC(), BaseURL: cfg.baseURL, OK: true}
	p := &prober{
		gateway: backend.NewClient(cfg.baseURL, logger.WithField("component", "backend_client")),
		cfg:     cfg,
		rep:     rep,
	}

	start := time.Now()
	p.run(ctx)
	rep.DurationSeconds = time.Since(start).Seconds()

	if err := writeReport(rep, cfg.outputPath); err != nil {
		logger.WithError(err).Fatal("failed to write report")
	}
	if !rep.OK {
		os.Exit(1)
	}
}
