package checkout

import (
	"context"
	"net/url"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vladislavdragonenkov/storefront/internal/cart"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

// Параметры навигации, потребляемые после возврата с hosted-страницы.
const (
	paramSessionID = "session_id"
	paramOrderID   = "order_id"
	paramSuccess   = "success"
	paramCanceled  = "canceled"
)

// ProductRefresher обновляет список товаров (остатки меняются после оплаты).
type ProductRefresher func(ctx context.Context) error

// Outcome — результат обработки параметров возврата.
type Outcome struct {
	// Settled — оплата подтверждена, заказ доступен для показа.
	Settled bool
	// Canceled — пользователь отменил оплату; нормальный исход, не ошибка.
	Canceled bool
	// Replayed — параметры успеха по этому заказу уже были обработаны ранее.
	Replayed bool
	// Order заполняется вместе с Settled.
	Order *domain.Order
	// CleanQuery — параметры навигации без потреблённых флагов; именно их
	// следует оставить в видимом адресе, чтобы обработка не повторилась.
	CleanQuery url.Values
}

// Reconciler обрабатывает параметры возврата при старте страницы и
// возобновляет прерванный hosted-поток оплаты.
type Reconciler struct {
	cart    *cart.Store
	backend domain.BackendGateway
	refresh ProductRefresher
	logger  *log.Entry
	metrics *metrics.CheckoutMetrics
	events  EventSink

	mu       sync.Mutex
	consumed map[string]struct{}
}

// NewReconciler создаёт реконсилер. refresh может быть nil.
func NewReconciler(cartStore *cart.Store, backend domain.BackendGateway, refresh ProductRefresher, logger *log.Entry) *Reconciler {
	if logger == nil {
		logger = log.New().WithField("component", "reconciler")
	}
	return &Reconciler{
		cart:     cartStore,
		backend:  backend,
		refresh:  refresh,
		logger:   logger,
		metrics:  metrics.NewCheckoutMetrics(),
		consumed: make(map[string]struct{}),
	}
}

// NewReconcilerWithoutMetrics создаёт реконсилер без метрик (для тестов).
func NewReconcilerWithoutMetrics(cartStore *cart.Store, backend domain.BackendGateway, refresh ProductRefresher, logger *log.Entry) *Reconciler {
	r := NewReconciler(cartStore, backend, refresh, logger)
	r.metrics = nil
	return r
}

// SetEventSink подключает публикацию аналитических событий.
func (r *Reconciler) SetEventSink(events EventSink) {
	r.events = events
}

// Reconcile обрабатывает параметры навигации ровно один раз на загрузку.
// Ошибки внешних вызовов не доходят до пользователя: успех деградирует до
// синтезированной записи, отмена и отсутствие флагов никогда не ошибочны.
// Очистка корзины не зависит от завершения обновления списка товаров.
func (r *Reconciler) Reconcile(ctx context.Context, query url.Values) Outcome {
	success := query.Get(paramSuccess) == "true"
	canceled := query.Get(paramCanceled) == "true"
	orderID := query.Get(paramOrderID)
	sessionID := query.Get(paramSessionID)
	clean := stripConsumedParams(query)

	switch {
	case success && orderID != "":
		return r.reconcileSuccess(ctx, orderID, sessionID, clean)
	case canceled:
		r.logger.Info("payment canceled by user")
		if r.metrics != nil {
			r.metrics.RecordReconcileCanceled()
		}
		if r.events != nil {
			r.events.CheckoutEvent(EventReturnCanceled, orderID, nil)
		}
		return Outcome{Canceled: true, CleanQuery: clean}
	default:
		return Outcome{CleanQuery: clean}
	}
}

func (r *Reconciler) reconcileSuccess(ctx context.Context, orderID, sessionID string, clean url.Values) Outcome {
	r.mu.Lock()
	if _, dup := r.consumed[orderID]; dup {
		r.mu.Unlock()
		// Повтор тех же параметров (например, закладка) не очищает корзину
		// заново и не перечитывает детали заказа.
		r.logger.WithField("order_id", orderID).Debug("return parameters already consumed, ignoring replay")
		if r.metrics != nil {
			r.metrics.RecordReconcileReplayed()
		}
		return Outcome{Replayed: true, CleanQuery: clean}
	}
	r.consumed[orderID] = struct{}{}
	r.mu.Unlock()

	// Обновление товаров идёт параллельно и независимо: его ошибка не
	// блокирует и не искажает очистку корзины.
	var g errgroup.Group
	if r.refresh != nil {
		g.Go(func() error { return r.refresh(ctx) })
	}

	if sessionID != "" {
		r.verifySession(ctx, sessionID, orderID)
	}

	r.cart.Clear()

	order, err := r.backend.Order(ctx, orderID)
	if err != nil {
		r.logger.WithError(err).WithField("order_id", orderID).Warn("order detail fetch failed, synthesizing record")
		if r.metrics != nil {
			r.metrics.RecordSettlementFallback()
		}
		order = synthesizeReturnOrder(orderID)
	}

	if err := g.Wait(); err != nil {
		r.logger.WithError(err).Warn("product refresh after payment failed")
	}

	if r.metrics != nil {
		r.metrics.RecordReconcileSuccess()
	}
	if r.events != nil {
		r.events.CheckoutEvent(EventReturnSettled, orderID, map[string]interface{}{
			"synthesized": order.Synthesized,
		})
	}
	r.logger.WithField("order_id", orderID).Info("payment confirmed via return flow")
	return Outcome{Settled: true, Order: &order, CleanQuery: clean}
}

// verifySession сверяет статус hosted-сессии для наблюдаемости.
// Расхождение логируется, но не отменяет успешный исход: флаг success в
// параметрах возврата остаётся источником истины, как и в форме.
func (r *Reconciler) verifySession(ctx context.Context, sessionID, orderID string) {
	status, err := r.backend.SessionStatus(ctx, sessionID)
	if err != nil {
		r.logger.WithError(err).WithField("session_id", sessionID).Warn("session status check failed")
		return
	}
	if status.PaymentStatus != "paid" {
		r.logger.WithFields(log.Fields{
			"session_id":     sessionID,
			"order_id":       orderID,
			"payment_status": status.PaymentStatus,
		}).Warn("session status does not report paid")
	}
}

// synthesizeReturnOrder — минимальная запись, когда о заказе неизвестно ничего,
// кроме идентификатора из параметров возврата.
func synthesizeReturnOrder(orderID string) domain.Order {
	return domain.Order{
		OrderID:     orderID,
		TotalMinor:  0,
		Email:       "Unknown",
		FirstName:   "Customer",
		CreatedAt:   time.Now().UTC(),
		Synthesized: true,
	}
}

// stripConsumedParams возвращает копию параметров без обработанных флагов.
func stripConsumedParams(query url.Values) url.Values {
	clean := url.Values{}
	for key, values := range query {
		switch key {
		case paramSessionID, paramOrderID, paramSuccess, paramCanceled:
			continue
		}
		clean[key] = append([]string(nil), values...)
	}
	return clean
}
