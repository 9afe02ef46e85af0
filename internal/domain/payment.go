package domain

import "time"

// PaymentSessionKind различает два пути оплаты за общим контрактом завершения.
type PaymentSessionKind string

const (
	// PaymentSessionHosted — redirect на hosted-страницу провайдера;
	// завершение наблюдается только через параметры возврата.
	PaymentSessionHosted PaymentSessionKind = "hosted_checkout"
	// PaymentSessionCardIntent — встроенное подтверждение картой;
	// завершение наблюдается синхронно в той же сессии.
	PaymentSessionCardIntent PaymentSessionKind = "card_intent"
)

// PaymentSession — транзиентная сессия оплаты, привязанная к одному заказу.
// Для каждого пути оплаты активна не более одной сессии на заказ.
type PaymentSession struct {
	Kind    PaymentSessionKind
	OrderID string
	// URL заполняется только для hosted-сессии; одноразовый и непрозрачный.
	URL string
	// ClientSecret заполняется только для card-intent сессии.
	ClientSecret string
	CreatedAt    time.Time
}

// Validate проверяет согласованность полей сессии оплаты.
func (s *PaymentSession) Validate() []error {
	var errs []error

	if s.OrderID == "" {
		errs = append(errs, ErrOrderIDRequired)
	}

	switch s.Kind {
	case PaymentSessionHosted:
		if s.URL == "" {
			errs = append(errs, ErrSessionURLRequired)
		}
	case PaymentSessionCardIntent:
		if s.ClientSecret == "" {
			errs = append(errs, ErrClientSecretRequired)
		}
	default:
		errs = append(errs, ErrSessionKindInvalid)
	}

	return errs
}

// PaymentInstrument — платёжное средство, собранное на клиенте.
// Для Stripe это идентификатор payment method (pm_...) или тестовый токен.
type PaymentInstrument struct {
	PaymentMethodID string
}

// PaymentStatus описывает исход подтверждения платежа у провайдера.
type PaymentStatus string

const (
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// PaymentConfirmation — результат успешного подтверждения платежа.
type PaymentConfirmation struct {
	IntentID string
	Status   PaymentStatus
}

// PaymentConfig — клиентская конфигурация платёжного провайдера.
type PaymentConfig struct {
	PublishableKey string
}
