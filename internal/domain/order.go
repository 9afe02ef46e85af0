package domain

import "time"

// CheckoutPhase описывает этап процесса оформления заказа на клиенте.
type CheckoutPhase string

const (
	// PhaseForm — форма редактируется, заказ ещё не создан.
	PhaseForm CheckoutPhase = "form"
	// PhaseProcessing — отправлен запрос на создание заказа, ждём ответ backend.
	PhaseProcessing CheckoutPhase = "processing"
	// PhasePaymentChoice — заказ создан, пользователь выбирает способ оплаты.
	PhasePaymentChoice CheckoutPhase = "payment_choice"
	// PhaseRedirecting — браузер уходит на hosted-страницу провайдера.
	PhaseRedirecting CheckoutPhase = "redirecting"
	// PhaseConfirming — идёт подтверждение встроенного платежа картой.
	PhaseConfirming CheckoutPhase = "confirming"
	// PhaseSettled — оплата подтверждена, детали заказа доступны для показа.
	PhaseSettled CheckoutPhase = "settled"
)

// IsTerminal сообщает, является ли этап конечным.
func (p CheckoutPhase) IsTerminal() bool {
	return p == PhaseSettled
}

// Interactive сообщает, ожидает ли этап действий пользователя.
// На такие этапы оркестратор возвращается после ошибок внешних вызовов.
func (p CheckoutPhase) Interactive() bool {
	return p == PhaseForm || p == PhasePaymentChoice
}

// OrderItem представляет одну позицию заказа в ответе backend.
type OrderItem struct {
	ProductName    string
	Qty            int32
	UnitPriceMinor int64
}

// Order — клиентское представление заказа, полученное от backend.
// После создания заказа клиент считает его неизменяемым.
type Order struct {
	OrderID    string
	TotalMinor int64

	Email     string
	FirstName string
	LastName  string
	Phone     string

	Address string
	City    string
	State   string
	ZipCode string
	Country string

	Items     []OrderItem
	CreatedAt time.Time

	// Synthesized отмечает запись, собранную на клиенте после неудачного
	// чтения деталей заказа. Успешный платёж никогда не упирается в эту ошибку.
	Synthesized bool
}

// OrderDraft — снимок корзины и данных покупателя для POST /orders.
type OrderDraft struct {
	Items      []LineItem
	TotalMinor int64
	Customer   CustomerInfo
	Timestamp  time.Time
	// IdempotencyKey генерируется клиентом на каждую попытку оформления.
	IdempotencyKey string
}

// Validate проверяет, что черновик заказа пригоден к отправке.
func (d *OrderDraft) Validate() []error {
	var errs []error

	if len(d.Items) == 0 {
		errs = append(errs, ErrCartEmpty)
	}
	if d.TotalMinor < 0 {
		errs = append(errs, ErrAmountNegative)
	}

	var calc int64
	for i := range d.Items {
		if itemErrs := d.Items[i].Validate(); len(itemErrs) > 0 {
			errs = append(errs, itemErrs...)
		}
		calc += d.Items[i].SubtotalMinor()
	}
	if calc != d.TotalMinor {
		errs = append(errs, ErrAmountMismatch)
	}

	return errs
}
