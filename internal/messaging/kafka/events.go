package kafka

import "time"

// Topics для Kafka
const (
	TopicCheckoutEvents = "storefront.checkout.events"
)

// CheckoutEvent представляет событие жизненного цикла checkout для аналитики.
// Тип события задаёт пакет checkout; здесь только транспортная форма.
type CheckoutEvent struct {
	EventType string                 `json:"event_type"`
	OrderID   string                 `json:"order_id,omitempty"`
	SessionID string                 `json:"session_id,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewCheckoutEvent создает новое событие checkout
func NewCheckoutEvent(eventType, orderID string, metadata map[string]interface{}) *CheckoutEvent {
	return &CheckoutEvent{
		EventType: eventType,
		OrderID:   orderID,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}
