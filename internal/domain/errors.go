package domain

import "errors"

var (
	// Ошибка отсутствующего идентификатора товара.
	ErrProductIDRequired = errors.New("product id is required")
	// Ошибка при некорректном количестве (< 1); вызывающая сторона обязана
	// привести количество к допустимому до вызова.
	ErrQuantityInvalid = errors.New("quantity must be at least one")
	// Ошибка превышения доступного остатка по позиции.
	ErrQuantityExceedsStock = errors.New("quantity exceeds stock limit")
	// Ошибка отрицательной цены позиции.
	ErrPriceInvalid = errors.New("item price must be non-negative")
	// Ошибка оформления пустой корзины.
	ErrCartEmpty = errors.New("cart is empty")
	// Ошибка отрицательной суммы заказа.
	ErrAmountNegative = errors.New("total must be non-negative")
	// Ошибка несоответствия суммы заказа и сумм позиций.
	ErrAmountMismatch = errors.New("order total does not match items sum")
	// Ошибка отсутствующего идентификатора заказа.
	ErrOrderIDRequired = errors.New("order_id is required")
	// Ошибка hosted-сессии без URL.
	ErrSessionURLRequired = errors.New("checkout session url is required")
	// Ошибка card-intent сессии без client secret.
	ErrClientSecretRequired = errors.New("client secret is required")
	// Ошибка неизвестного вида платёжной сессии.
	ErrSessionKindInvalid = errors.New("unknown payment session kind")
	// ErrPhaseInvalid возвращается при операции, недопустимой на текущем этапе.
	ErrPhaseInvalid = errors.New("operation not allowed in current checkout phase")
	// ErrConfirmerUnavailable — платёжный SDK не сконфигурирован.
	ErrConfirmerUnavailable = errors.New("payment confirmer is not configured")
	// ErrAlreadyReconciled — параметры возврата по этому заказу уже обработаны.
	ErrAlreadyReconciled = errors.New("return parameters already reconciled")
)

// APIError — бизнес-ошибка backend: ответ получен, но success == false
// либо HTTP-статус вне 2xx. Message предназначен для показа пользователю.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Op + ": " + e.Message
	}
	return e.Op + ": backend request failed"
}

// ProcessorError — отказ платёжного провайдера (например, карта отклонена).
// Показывается возле платёжной формы и не откатывает весь checkout.
type ProcessorError struct {
	Code    string
	Message string
}

func (e *ProcessorError) Error() string {
	if e.Message != "" {
		return "payment processor: " + e.Message
	}
	return "payment processor: " + e.Code
}

// IsDeclined проверяет, является ли ошибка отказом провайдера.
func IsDeclined(err error) bool {
	var pe *ProcessorError
	return errors.As(err, &pe)
}

// UserMessage извлекает сообщение для пользователя из ошибки внешнего вызова.
// Если осмысленного сообщения нет, возвращается fallback.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var procErr *ProcessorError
	if errors.As(err, &procErr) && procErr.Message != "" {
		return procErr.Message
	}
	return fallback
}
