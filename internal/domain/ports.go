package domain

import "context"

// OrderAck — ответ backend на создание заказа.
type OrderAck struct {
	Success bool
	OrderID string
	Message string
}

// IntentAck — ответ backend на создание payment intent.
type IntentAck struct {
	Success      bool
	ClientSecret string
	Message      string
}

// SessionAck — ответ backend на создание hosted checkout-сессии.
type SessionAck struct {
	Success bool
	URL     string
	Message string
}

// SessionStatus — статус hosted-сессии для проверки после возврата.
type SessionStatus struct {
	SessionID     string
	OrderID       string
	PaymentStatus string
}

// BackendGateway описывает взаимодействие с REST backend витрины.
// Клиент потребляет API, но не определяет его внутренности.
type BackendGateway interface {
	// Products возвращает список товаров каталога.
	Products(ctx context.Context) ([]Product, error)
	// ProductsByCategory возвращает товары одной категории.
	ProductsByCategory(ctx context.Context, category string) ([]Product, error)
	// SearchProducts ищет товары по строке запроса.
	SearchProducts(ctx context.Context, query string) ([]Product, error)
	// Categories возвращает список категорий каталога.
	Categories(ctx context.Context) ([]string, error)
	// Order возвращает детали заказа по идентификатору.
	Order(ctx context.Context, orderID string) (Order, error)
	// CreateOrder создаёт заказ из снимка корзины; вызывается один раз на попытку.
	CreateOrder(ctx context.Context, draft OrderDraft) (OrderAck, error)
	// PaymentConfig возвращает publishable key платёжного провайдера.
	PaymentConfig(ctx context.Context) (PaymentConfig, error)
	// CreatePaymentIntent создаёт intent для встроенного подтверждения.
	CreatePaymentIntent(ctx context.Context, orderID string, amountMinor int64, currency string) (IntentAck, error)
	// CreateCheckoutSession создаёт hosted-сессию для redirect-оплаты.
	CreateCheckoutSession(ctx context.Context, orderID string) (SessionAck, error)
	// SessionStatus возвращает состояние hosted-сессии после возврата.
	SessionStatus(ctx context.Context, sessionID string) (SessionStatus, error)
}

// PaymentConfirmer описывает подтверждение платежа через SDK провайдера.
type PaymentConfirmer interface {
	// ConfirmCardPayment подтверждает intent собранным платёжным средством.
	// Отказ провайдера возвращается как *ProcessorError.
	ConfirmCardPayment(ctx context.Context, clientSecret string, instrument PaymentInstrument) (PaymentConfirmation, error)
}

// Navigator абстрагирует уход браузера на внешний URL в hosted-потоке.
// В web-слое это redirect-ответ, в тестах — заглушка.
type Navigator interface {
	Redirect(url string) error
}
