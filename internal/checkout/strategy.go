package checkout

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// OrderRef — минимальная ссылка на заказ для платёжной попытки.
type OrderRef struct {
	OrderID     string
	AmountMinor int64
	Currency    string
}

// Result описывает исход платёжной попытки за общим контрактом завершения.
type Result struct {
	// Settled — платёж подтверждён синхронно в этой же сессии страницы.
	Settled bool
	// Redirected — браузер уходит на hosted-страницу; исход станет известен
	// только реконсилеру после возврата.
	Redirected bool
	// RedirectURL заполняется вместе с Redirected.
	RedirectURL string
	// Confirmation заполняется вместе с Settled.
	Confirmation domain.PaymentConfirmation
}

// Strategy — общий контракт двух путей оплаты.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, order OrderRef) (Result, error)
}

// HostedRedirect запрашивает у backend hosted checkout-сессию и уводит
// браузер на её URL. Завершение наблюдается через параметры возврата.
type HostedRedirect struct {
	Backend   domain.BackendGateway
	Navigator domain.Navigator
	Logger    *log.Entry

	session *domain.PaymentSession
}

func (h *HostedRedirect) Name() string { return "hosted_redirect" }

// Attempt создаёт сессию не более одного раза на заказ: повторный вызов
// переиспользует уже полученный URL вместо создания дубликата.
func (h *HostedRedirect) Attempt(ctx context.Context, order OrderRef) (Result, error) {
	if h.session == nil || h.session.OrderID != order.OrderID {
		ack, err := h.Backend.CreateCheckoutSession(ctx, order.OrderID)
		if err != nil {
			return Result{}, err
		}
		if !ack.Success {
			return Result{}, &domain.APIError{Op: "create checkout session", Message: ack.Message}
		}
		h.session = &domain.PaymentSession{
			Kind:      domain.PaymentSessionHosted,
			OrderID:   order.OrderID,
			URL:       ack.URL,
			CreatedAt: time.Now().UTC(),
		}
		h.Logger.WithField("order_id", order.OrderID).Info("hosted checkout session created")
	}

	if err := h.Navigator.Redirect(h.session.URL); err != nil {
		return Result{}, err
	}
	return Result{Redirected: true, RedirectURL: h.session.URL}, nil
}

// EmbeddedConfirmation запрашивает у backend payment intent и подтверждает
// его через SDK провайдера собранным платёжным средством. Исход наблюдается
// синхронно.
type EmbeddedConfirmation struct {
	Backend   domain.BackendGateway
	Confirmer domain.PaymentConfirmer
	Logger    *log.Entry

	// Instrument выставляется оркестратором перед каждой попыткой.
	Instrument domain.PaymentInstrument

	session *domain.PaymentSession
}

func (e *EmbeddedConfirmation) Name() string { return "embedded_confirmation" }

// Attempt идемпотентен относительно создания intent: client secret
// запрашивается один раз на заказ, повторные попытки подтверждают тот же intent.
func (e *EmbeddedConfirmation) Attempt(ctx context.Context, order OrderRef) (Result, error) {
	if e.Confirmer == nil {
		return Result{}, domain.ErrConfirmerUnavailable
	}

	if e.session == nil || e.session.OrderID != order.OrderID {
		ack, err := e.Backend.CreatePaymentIntent(ctx, order.OrderID, order.AmountMinor, order.Currency)
		if err != nil {
			return Result{}, err
		}
		if !ack.Success {
			return Result{}, &domain.APIError{Op: "create payment intent", Message: ack.Message}
		}
		e.session = &domain.PaymentSession{
			Kind:         domain.PaymentSessionCardIntent,
			OrderID:      order.OrderID,
			ClientSecret: ack.ClientSecret,
			CreatedAt:    time.Now().UTC(),
		}
		e.Logger.WithField("order_id", order.OrderID).Info("payment intent created")
	}

	confirmation, err := e.Confirmer.ConfirmCardPayment(ctx, e.session.ClientSecret, e.Instrument)
	if err != nil {
		return Result{}, err
	}
	return Result{Settled: true, Confirmation: confirmation}, nil
}

var _ Strategy = (*HostedRedirect)(nil)
var _ Strategy = (*EmbeddedConfirmation)(nil)
