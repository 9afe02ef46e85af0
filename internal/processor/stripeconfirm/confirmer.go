// Package stripeconfirm подтверждает payment intent через Stripe Go SDK.
// Это адаптер встроенного карточного пути: intent создаёт backend, клиент
// лишь подтверждает его собранным платёжным средством.
package stripeconfirm

import (
	"context"
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// ErrClientSecretMalformed возвращается, когда client secret не содержит
// идентификатора intent.
var ErrClientSecretMalformed = errors.New("client secret does not contain an intent id")

// Confirmer реализует domain.PaymentConfirmer поверх Stripe API.
type Confirmer struct {
	api    *client.API
	logger *log.Entry
}

// New создаёт Confirmer с ключом Stripe. Ключ секретный или publishable —
// подтверждение intent допускает оба режима.
func New(apiKey string, logger *log.Entry) *Confirmer {
	if logger == nil {
		logger = log.New().WithField("component", "stripe_confirmer")
	}
	api := &client.API{}
	api.Init(apiKey, nil)
	return &Confirmer{api: api, logger: logger}
}

// NewWithAPI создаёт Confirmer с готовым клиентом Stripe (для тестов).
func NewWithAPI(api *client.API, logger *log.Entry) *Confirmer {
	if logger == nil {
		logger = log.New().WithField("component", "stripe_confirmer")
	}
	return &Confirmer{api: api, logger: logger}
}

var _ domain.PaymentConfirmer = (*Confirmer)(nil)

// IntentIDFromClientSecret извлекает идентификатор intent из client secret
// формата pi_..._secret_....
func IntentIDFromClientSecret(clientSecret string) (string, error) {
	id, _, found := strings.Cut(clientSecret, "_secret_")
	if !found || id == "" {
		return "", ErrClientSecretMalformed
	}
	return id, nil
}

// ConfirmCardPayment подтверждает intent платёжным средством пользователя.
// Отказы Stripe транслируются в domain.ProcessorError с кодом и сообщением
// провайдера, пригодным для показа пользователю.
func (c *Confirmer) ConfirmCardPayment(ctx context.Context, clientSecret string, instrument domain.PaymentInstrument) (domain.PaymentConfirmation, error) {
	intentID, err := IntentIDFromClientSecret(clientSecret)
	if err != nil {
		return domain.PaymentConfirmation{}, err
	}

	params := &stripe.PaymentIntentConfirmParams{
		ClientSecret: stripe.String(clientSecret),
	}
	if instrument.PaymentMethodID != "" {
		params.PaymentMethod = stripe.String(instrument.PaymentMethodID)
	}
	params.Context = ctx

	intent, err := c.api.PaymentIntents.Confirm(intentID, params)
	if err != nil {
		return domain.PaymentConfirmation{}, translateError(err)
	}

	confirmation := domain.PaymentConfirmation{
		IntentID: intent.ID,
		Status:   statusFromIntent(intent.Status),
	}
	if confirmation.Status != domain.PaymentStatusSucceeded {
		c.logger.WithFields(log.Fields{
			"intent_id": intent.ID,
			"status":    intent.Status,
		}).Warn("payment intent confirmed but not succeeded")
		return confirmation, &domain.ProcessorError{
			Code:    string(intent.Status),
			Message: "Payment was not completed",
		}
	}

	c.logger.WithField("intent_id", intent.ID).Info("payment intent confirmed")
	return confirmation, nil
}

// translateError переводит ошибку SDK в доменную ошибку процессинга.
func translateError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		message := stripeErr.Msg
		if message == "" {
			message = "Payment failed"
		}
		return &domain.ProcessorError{Code: string(stripeErr.Code), Message: message}
	}
	return err
}

func statusFromIntent(status stripe.PaymentIntentStatus) domain.PaymentStatus {
	switch status {
	case stripe.PaymentIntentStatusSucceeded:
		return domain.PaymentStatusSucceeded
	case stripe.PaymentIntentStatusProcessing, stripe.PaymentIntentStatusRequiresAction:
		return domain.PaymentStatusPending
	default:
		return domain.PaymentStatusFailed
	}
}
