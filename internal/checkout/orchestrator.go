package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/cart"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

// DefaultCurrency используется, пока витрина торгует в одной валюте.
const DefaultCurrency = "usd"

// Сообщения-заглушки для ошибок внешних вызовов без собственного текста.
const (
	fallbackOrderMessage    = "An error occurred while processing your order"
	fallbackCreateOrder     = "Failed to create order"
	fallbackPaymentSetup    = "An error occurred while setting up payment"
	fallbackPaymentDeclined = "Payment failed"
	fallbackCheckout        = "Checkout failed"
)

// Orchestrator ведёт машину состояний checkout:
// form -> processing -> payment_choice -> (redirecting | confirming) -> settled.
// Оркестратор владеет фазой и платёжными сессиями; корзина мутируется только
// через её операции.
type Orchestrator struct {
	cart      *cart.Store
	backend   domain.BackendGateway
	confirmer domain.PaymentConfirmer
	navigator domain.Navigator
	logger    *log.Entry
	metrics   *metrics.CheckoutMetrics
	events    EventSink
	currency  string

	mu         sync.Mutex
	phase      domain.CheckoutPhase
	customer   domain.CustomerInfo
	orderID    string
	totalMinor int64
	paymentCfg domain.PaymentConfig
	hosted     *HostedRedirect
	embedded   *EmbeddedConfirmation
	formErr    string
	paymentErr string
	settled    *domain.Order
	startedAt  time.Time
}

// NewOrchestrator создаёт рабочий экземпляр оркестратора.
func NewOrchestrator(
	cartStore *cart.Store,
	backend domain.BackendGateway,
	confirmer domain.PaymentConfirmer,
	navigator domain.Navigator,
	logger *log.Entry,
) *Orchestrator {
	if logger == nil {
		logger = log.New().WithField("component", "checkout")
	}
	return &Orchestrator{
		cart:      cartStore,
		backend:   backend,
		confirmer: confirmer,
		navigator: navigator,
		logger:    logger,
		metrics:   metrics.NewCheckoutMetrics(),
		currency:  DefaultCurrency,
		phase:     domain.PhaseForm,
	}
}

// NewOrchestratorWithEvents создаёт оркестратор с публикацией аналитических
// событий checkout (например, в Kafka).
func NewOrchestratorWithEvents(
	cartStore *cart.Store,
	backend domain.BackendGateway,
	confirmer domain.PaymentConfirmer,
	navigator domain.Navigator,
	events EventSink,
	logger *log.Entry,
) *Orchestrator {
	o := NewOrchestrator(cartStore, backend, confirmer, navigator, logger)
	o.events = events
	return o
}

// NewOrchestratorWithoutMetrics создаёт оркестратор без метрик (для тестов).
func NewOrchestratorWithoutMetrics(
	cartStore *cart.Store,
	backend domain.BackendGateway,
	confirmer domain.PaymentConfirmer,
	navigator domain.Navigator,
	logger *log.Entry,
) *Orchestrator {
	o := NewOrchestrator(cartStore, backend, confirmer, navigator, logger)
	o.metrics = nil
	return o
}

// Phase возвращает текущий этап checkout.
func (o *Orchestrator) Phase() domain.CheckoutPhase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// OrderID возвращает идентификатор созданного заказа; пустая строка до создания.
func (o *Orchestrator) OrderID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.orderID
}

// FormError возвращает сообщение последней ошибки этапа формы/создания заказа.
func (o *Orchestrator) FormError() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.formErr
}

// PaymentError возвращает inline-сообщение последней платёжной ошибки.
func (o *Orchestrator) PaymentError() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.paymentErr
}

// PaymentConfig возвращает клиентскую конфигурацию провайдера после создания заказа.
func (o *Orchestrator) PaymentConfig() domain.PaymentConfig {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.paymentCfg
}

// SettledOrder возвращает детали заказа после settlement, либо nil.
func (o *Orchestrator) SettledOrder() *domain.Order {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.settled == nil {
		return nil
	}
	order := *o.settled
	return &order
}

// Submit валидирует форму и создаёт заказ на backend.
// При любой ошибке внешнего вызова фаза возвращается к form с сообщением
// для пользователя; зависания в processing не бывает.
func (o *Orchestrator) Submit(ctx context.Context, info domain.CustomerInfo) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.phase != domain.PhaseForm {
		return domain.ErrPhaseInvalid
	}

	if fieldErrs := ValidateCustomer(info); len(fieldErrs) > 0 {
		return &ValidationError{Fields: fieldErrs}
	}

	draft := domain.OrderDraft{
		Items:          o.cart.Items(),
		TotalMinor:     o.cart.TotalMinor(),
		Customer:       info,
		Timestamp:      time.Now().UTC(),
		IdempotencyKey: uuid.NewString(),
	}
	if errs := draft.Validate(); len(errs) > 0 {
		return errs[0]
	}

	o.phase = domain.PhaseProcessing
	o.formErr = ""
	o.startedAt = time.Now()
	if o.metrics != nil {
		o.metrics.RecordCheckoutStarted()
	}
	o.emitEvent(EventCheckoutStarted, "", map[string]interface{}{
		"items_count": len(draft.Items),
		"total_minor": draft.TotalMinor,
	})

	ack, err := o.backend.CreateOrder(ctx, draft)
	if err != nil {
		o.failToForm(err, fallbackOrderMessage)
		return err
	}
	if !ack.Success {
		err := &domain.APIError{Op: "create order", Message: ack.Message}
		o.failToForm(err, fallbackCreateOrder)
		return err
	}

	// С этого момента orderID неизменяем.
	o.orderID = ack.OrderID
	o.customer = info
	o.totalMinor = draft.TotalMinor
	o.hosted = &HostedRedirect{
		Backend:   o.backend,
		Navigator: o.navigator,
		Logger:    o.logger.WithField("strategy", "hosted"),
	}
	o.embedded = &EmbeddedConfirmation{
		Backend:   o.backend,
		Confirmer: o.confirmer,
		Logger:    o.logger.WithField("strategy", "embedded"),
	}
	o.phase = domain.PhasePaymentChoice

	// Заказ уже создан: провал загрузки платёжной конфигурации не
	// откатывает к форме, иначе повторный Submit создаст дубликат заказа.
	if cfg, cfgErr := o.backend.PaymentConfig(ctx); cfgErr != nil {
		o.paymentErr = domain.UserMessage(cfgErr, fallbackPaymentSetup)
		o.logger.WithError(cfgErr).WithField("order_id", o.orderID).Warn("payment config fetch failed")
	} else {
		o.paymentCfg = cfg
	}

	if o.metrics != nil {
		o.metrics.RecordOrderCreated()
	}
	o.emitEvent(EventOrderCreated, o.orderID, map[string]interface{}{
		"total_minor": o.totalMinor,
	})
	o.logger.WithFields(log.Fields{
		"order_id":    o.orderID,
		"total_minor": o.totalMinor,
	}).Info("order created, awaiting payment choice")
	return nil
}

// BeginHostedCheckout запускает redirect-оплату и возвращает URL hosted-страницы.
// Исход оплаты станет известен реконсилеру после возврата браузера.
func (o *Orchestrator) BeginHostedCheckout(ctx context.Context) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.phase != domain.PhasePaymentChoice {
		return "", domain.ErrPhaseInvalid
	}

	if o.metrics != nil {
		o.metrics.RecordPaymentAttempt(metrics.PaymentMethodHosted)
	}

	result, err := o.hosted.Attempt(ctx, o.orderRef())
	if err != nil {
		o.paymentErr = domain.UserMessage(err, fallbackCheckout)
		if o.metrics != nil {
			o.metrics.RecordPaymentFailed(metrics.PaymentMethodHosted)
		}
		o.emitEvent(EventPaymentFailed, o.orderID, map[string]interface{}{
			"method": "hosted",
			"reason": err.Error(),
		})
		o.logger.WithError(err).WithField("order_id", o.orderID).Warn("hosted checkout failed")
		return "", err
	}

	o.paymentErr = ""
	o.phase = domain.PhaseRedirecting
	return result.RedirectURL, nil
}

// ConfirmCardPayment запускает встроенное подтверждение картой.
// Отказ провайдера не откатывает checkout: фаза возвращается к payment_choice,
// ошибка показывается возле платёжной формы, обе стратегии остаются доступными.
func (o *Orchestrator) ConfirmCardPayment(ctx context.Context, instrument domain.PaymentInstrument) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.phase != domain.PhasePaymentChoice {
		return domain.ErrPhaseInvalid
	}

	if o.metrics != nil {
		o.metrics.RecordPaymentAttempt(metrics.PaymentMethodCard)
	}

	o.phase = domain.PhaseConfirming
	o.embedded.Instrument = instrument

	result, err := o.embedded.Attempt(ctx, o.orderRef())
	if err != nil {
		// Ошибки создания intent и транспорта тоже остаются на платёжном шаге.
		o.phase = domain.PhasePaymentChoice
		fallback := fallbackPaymentSetup
		if domain.IsDeclined(err) {
			fallback = fallbackPaymentDeclined
		}
		o.paymentErr = domain.UserMessage(err, fallback)
		if o.metrics != nil {
			o.metrics.RecordPaymentFailed(metrics.PaymentMethodCard)
		}
		o.emitEvent(EventPaymentFailed, o.orderID, map[string]interface{}{
			"method": "card",
			"reason": err.Error(),
		})
		o.logger.WithError(err).WithField("order_id", o.orderID).Warn("card payment failed")
		return err
	}

	o.paymentErr = ""
	o.emitEvent(EventPaymentSucceeded, o.orderID, map[string]interface{}{
		"method":    "card",
		"intent_id": result.Confirmation.IntentID,
	})
	o.settleLocked(ctx)
	return nil
}

// CancelRedirect возвращает checkout к выбору оплаты после того, как
// пользователь вернулся с hosted-страницы, не оплатив. Отмена — нормальный
// исход, а не ошибка: пользователь может попробовать другой путь оплаты.
func (o *Orchestrator) CancelRedirect() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.phase != domain.PhaseRedirecting {
		return
	}
	o.phase = domain.PhasePaymentChoice
}

// SettleFromReturn завершает redirect-оплату по исходу реконсилера:
// redirecting → settled, заказ сохраняется для экрана подтверждения.
// Вне фазы redirecting вызов игнорируется — свежая сессия, получившая
// параметры возврата, не имеет checkout, который можно завершить.
func (o *Orchestrator) SettleFromReturn(order domain.Order) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.phase != domain.PhaseRedirecting {
		return
	}

	o.cart.Clear()
	o.paymentErr = ""
	o.settled = &order
	o.phase = domain.PhaseSettled

	if o.metrics != nil {
		o.metrics.RecordCheckoutSettled()
		if !o.startedAt.IsZero() {
			o.metrics.RecordCheckoutDuration(time.Since(o.startedAt))
		}
	}
	o.emitEvent(EventCheckoutSettled, o.orderID, map[string]interface{}{
		"total_minor": order.TotalMinor,
		"synthesized": order.Synthesized,
	})
	o.logger.WithField("order_id", o.orderID).Info("checkout settled after hosted return")
}

// Reset возвращает оркестратор к пустой форме для следующей покупки.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.phase = domain.PhaseForm
	o.customer = domain.CustomerInfo{}
	o.orderID = ""
	o.totalMinor = 0
	o.paymentCfg = domain.PaymentConfig{}
	o.hosted = nil
	o.embedded = nil
	o.formErr = ""
	o.paymentErr = ""
	o.settled = nil
}

func (o *Orchestrator) orderRef() OrderRef {
	return OrderRef{OrderID: o.orderID, AmountMinor: o.totalMinor, Currency: o.currency}
}

// settleLocked вызывается с удержанным мьютексом после подтверждённой оплаты.
// Чтение деталей заказа деградирует до синтезированной записи: успешная
// оплата никогда не упирается во вторичную ошибку чтения.
func (o *Orchestrator) settleLocked(ctx context.Context) {
	order, err := o.backend.Order(ctx, o.orderID)
	if err != nil {
		// Деградация маскирует ошибку backend от пользователя; для
		// эксплуатации причина остаётся в логе.
		o.logger.WithError(err).WithField("order_id", o.orderID).Warn("order detail fetch failed, synthesizing record")
		if o.metrics != nil {
			o.metrics.RecordSettlementFallback()
		}
		order = o.synthesizeOrder()
	}

	o.cart.Clear()
	o.settled = &order
	o.phase = domain.PhaseSettled

	if o.metrics != nil {
		o.metrics.RecordCheckoutSettled()
		if !o.startedAt.IsZero() {
			o.metrics.RecordCheckoutDuration(time.Since(o.startedAt))
		}
	}
	o.emitEvent(EventCheckoutSettled, o.orderID, map[string]interface{}{
		"total_minor": order.TotalMinor,
		"synthesized": order.Synthesized,
	})
	o.logger.WithField("order_id", o.orderID).Info("checkout settled")
}

// synthesizeOrder собирает минимальную запись из известных клиенту данных.
func (o *Orchestrator) synthesizeOrder() domain.Order {
	return domain.Order{
		OrderID:     o.orderID,
		TotalMinor:  o.totalMinor,
		Email:       o.customer.Email,
		FirstName:   o.customer.FirstName,
		LastName:    o.customer.LastName,
		Phone:       o.customer.Phone,
		Address:     o.customer.Address,
		City:        o.customer.City,
		State:       o.customer.State,
		ZipCode:     o.customer.ZipCode,
		Country:     o.customer.Country,
		CreatedAt:   time.Now().UTC(),
		Synthesized: true,
	}
}

// failToForm переводит checkout обратно к форме с сообщением для пользователя.
func (o *Orchestrator) failToForm(err error, fallback string) {
	o.formErr = domain.UserMessage(err, fallback)
	o.phase = domain.PhaseForm
	if o.metrics != nil {
		o.metrics.RecordOrderCreateFailed()
	}
	o.emitEvent(EventOrderFailed, "", map[string]interface{}{
		"reason": err.Error(),
	})
	o.logger.WithError(err).Warn("order creation failed")
}

func (o *Orchestrator) emitEvent(eventType, orderID string, metadata map[string]interface{}) {
	if o.events == nil {
		return
	}
	o.events.CheckoutEvent(eventType, orderID, metadata)
}
