package kafka

import (
	log "github.com/sirupsen/logrus"
)

// eventPublisher — часть Producer, нужная sink'у.
type eventPublisher interface {
	PublishEvent(topic string, key string, event interface{}) error
}

// CheckoutEventSink публикует события checkout в Kafka.
// Аналитика не участвует в оформлении заказа: ошибка публикации логируется
// и не возвращается вызывающему.
type CheckoutEventSink struct {
	producer eventPublisher
	logger   *log.Entry
}

// NewCheckoutEventSink создает sink поверх готового producer
func NewCheckoutEventSink(producer *Producer) *CheckoutEventSink {
	return &CheckoutEventSink{
		producer: producer,
		logger:   log.WithField("component", "checkout-event-sink"),
	}
}

// CheckoutEvent публикует одно событие жизненного цикла checkout.
func (s *CheckoutEventSink) CheckoutEvent(eventType, orderID string, metadata map[string]interface{}) {
	key := orderID
	if key == "" {
		// До создания заказа ключом служит тип события.
		key = eventType
	}

	event := NewCheckoutEvent(eventType, orderID, metadata)
	if err := s.producer.PublishEvent(TopicCheckoutEvents, key, event); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"event_type": eventType,
			"order_id":   orderID,
		}).Warn("failed to publish checkout event")
	}
}
