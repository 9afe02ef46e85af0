package checkout

// Типы событий жизненного цикла checkout для аналитики.
const (
	EventCheckoutStarted  = "checkout.started"
	EventOrderCreated     = "checkout.order_created"
	EventOrderFailed      = "checkout.order_failed"
	EventPaymentSucceeded = "checkout.payment_succeeded"
	EventPaymentFailed    = "checkout.payment_failed"
	EventCheckoutSettled  = "checkout.settled"
	EventReturnCanceled   = "checkout.return_canceled"
	EventReturnSettled    = "checkout.return_settled"
)

// EventSink принимает события жизненного цикла checkout.
// Публикация не должна влиять на сам checkout: ошибки гасятся реализацией.
type EventSink interface {
	CheckoutEvent(eventType, orderID string, metadata map[string]interface{})
}
