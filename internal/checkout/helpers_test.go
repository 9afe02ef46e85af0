package checkout_test

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/cart"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func loggerForTests() *logrus.Entry {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: false, DisableTimestamp: true})
	logger.SetLevel(logrus.DebugLevel)
	return logger.WithField("component", "test")
}

// stubBackend — конфигурируемая заглушка BackendGateway со счётчиками вызовов.
type stubBackend struct {
	mu sync.Mutex

	ProductsFn      func(ctx context.Context) ([]domain.Product, error)
	OrderFn         func(ctx context.Context, orderID string) (domain.Order, error)
	CreateOrderFn   func(ctx context.Context, draft domain.OrderDraft) (domain.OrderAck, error)
	ConfigFn        func(ctx context.Context) (domain.PaymentConfig, error)
	IntentFn        func(ctx context.Context, orderID string, amountMinor int64, currency string) (domain.IntentAck, error)
	SessionFn       func(ctx context.Context, orderID string) (domain.SessionAck, error)
	SessionStatusFn func(ctx context.Context, sessionID string) (domain.SessionStatus, error)

	ProductsCalls      int
	OrderCalls         int
	CreateOrderCalls   int
	IntentCalls        int
	SessionCalls       int
	SessionStatusCalls int

	LastDraft domain.OrderDraft
}

func newStubBackend() *stubBackend {
	return &stubBackend{
		CreateOrderFn: func(context.Context, domain.OrderDraft) (domain.OrderAck, error) {
			return domain.OrderAck{Success: true, OrderID: "42"}, nil
		},
		ConfigFn: func(context.Context) (domain.PaymentConfig, error) {
			return domain.PaymentConfig{PublishableKey: "pk_test_123"}, nil
		},
		OrderFn: func(_ context.Context, orderID string) (domain.Order, error) {
			return domain.Order{OrderID: orderID, TotalMinor: 1900, FirstName: "Ann", LastName: "Lee", Email: "ann@example.com"}, nil
		},
		IntentFn: func(context.Context, string, int64, string) (domain.IntentAck, error) {
			return domain.IntentAck{Success: true, ClientSecret: "pi_1_secret_2"}, nil
		},
		SessionFn: func(context.Context, string) (domain.SessionAck, error) {
			return domain.SessionAck{Success: true, URL: "https://checkout.stripe.com/pay/cs_test"}, nil
		},
		SessionStatusFn: func(_ context.Context, sessionID string) (domain.SessionStatus, error) {
			return domain.SessionStatus{SessionID: sessionID, PaymentStatus: "paid"}, nil
		},
	}
}

func (s *stubBackend) Products(ctx context.Context) ([]domain.Product, error) {
	s.mu.Lock()
	s.ProductsCalls++
	s.mu.Unlock()
	if s.ProductsFn != nil {
		return s.ProductsFn(ctx)
	}
	return nil, nil
}

func (s *stubBackend) ProductsByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	return s.Products(ctx)
}

func (s *stubBackend) SearchProducts(ctx context.Context, query string) ([]domain.Product, error) {
	return s.Products(ctx)
}

func (s *stubBackend) Categories(context.Context) ([]string, error) {
	return nil, nil
}

func (s *stubBackend) Order(ctx context.Context, orderID string) (domain.Order, error) {
	s.mu.Lock()
	s.OrderCalls++
	s.mu.Unlock()
	return s.OrderFn(ctx, orderID)
}

func (s *stubBackend) CreateOrder(ctx context.Context, draft domain.OrderDraft) (domain.OrderAck, error) {
	s.mu.Lock()
	s.CreateOrderCalls++
	s.LastDraft = draft
	s.mu.Unlock()
	return s.CreateOrderFn(ctx, draft)
}

func (s *stubBackend) PaymentConfig(ctx context.Context) (domain.PaymentConfig, error) {
	return s.ConfigFn(ctx)
}

func (s *stubBackend) CreatePaymentIntent(ctx context.Context, orderID string, amountMinor int64, currency string) (domain.IntentAck, error) {
	s.mu.Lock()
	s.IntentCalls++
	s.mu.Unlock()
	return s.IntentFn(ctx, orderID, amountMinor, currency)
}

func (s *stubBackend) CreateCheckoutSession(ctx context.Context, orderID string) (domain.SessionAck, error) {
	s.mu.Lock()
	s.SessionCalls++
	s.mu.Unlock()
	return s.SessionFn(ctx, orderID)
}

func (s *stubBackend) SessionStatus(ctx context.Context, sessionID string) (domain.SessionStatus, error) {
	s.mu.Lock()
	s.SessionStatusCalls++
	s.mu.Unlock()
	return s.SessionStatusFn(ctx, sessionID)
}

var _ domain.BackendGateway = (*stubBackend)(nil)

// stubConfirmer — заглушка PaymentConfirmer.
type stubConfirmer struct {
	Confirmation domain.PaymentConfirmation
	Err          error
	Calls        int
	LastSecret   string
}

func (s *stubConfirmer) ConfirmCardPayment(_ context.Context, clientSecret string, _ domain.PaymentInstrument) (domain.PaymentConfirmation, error) {
	s.Calls++
	s.LastSecret = clientSecret
	if s.Err != nil {
		return domain.PaymentConfirmation{}, s.Err
	}
	return s.Confirmation, nil
}

// stubNavigator записывает URL, на который ушёл бы браузер.
type stubNavigator struct {
	URLs []string
	Err  error
}

func (s *stubNavigator) Redirect(url string) error {
	if s.Err != nil {
		return s.Err
	}
	s.URLs = append(s.URLs, url)
	return nil
}

// stubSink копит события аналитики.
type stubSink struct {
	mu     sync.Mutex
	Events []string
}

func (s *stubSink) CheckoutEvent(eventType, _ string, _ map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Events = append(s.Events, eventType)
}

func cartWithSticker(t interface{ Fatalf(string, ...interface{}) }) *cart.Store {
	store := cart.NewStore()
	product := domain.Product{ID: "1", Name: "Holographic Sticker", PriceMinor: 950, StockQuantity: 10}
	if err := store.Add(product, 2); err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	return store
}
