package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics содержит метрики процесса оформления и оплаты заказа.
type CheckoutMetrics struct {
	// Счётчики этапов checkout
	checkoutStarted   prometheus.Counter
	ordersCreated     prometheus.Counter
	orderCreateFailed prometheus.Counter
	checkoutSettled   prometheus.Counter

	// Платёжные попытки по способу оплаты (hosted / card)
	paymentAttempts *prometheus.CounterVec
	paymentFailed   *prometheus.CounterVec

	// Деградация чтения деталей заказа после подтверждённой оплаты
	settlementFallbacks prometheus.Counter

	// Исходы обработки параметров возврата
	reconcileSuccess  prometheus.Counter
	reconcileCanceled prometheus.Counter
	reconcileReplayed prometheus.Counter

	// Гистограмма длительности checkout от создания заказа до settled
	checkoutDuration prometheus.Histogram

	// Gauge незавершённых checkout
	activeCheckouts prometheus.Gauge
}

// PaymentMethod задаёт константы способов оплаты для меток метрик.
type PaymentMethod string

const (
	PaymentMethodHosted PaymentMethod = "hosted"
	PaymentMethodCard   PaymentMethod = "card"
)

// NewCheckoutMetrics создаёт новый экземпляр метрик checkout.
func NewCheckoutMetrics() *CheckoutMetrics {
	return newCheckoutMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newCheckoutMetricsWithRegisterer(registerer prometheus.Registerer) *CheckoutMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &CheckoutMetrics{
		checkoutStarted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_checkout_started_total",
			Help: "Total number of checkout submissions started",
		}),
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_orders_created_total",
			Help: "Total number of orders created by the backend",
		}),
		orderCreateFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_order_create_failed_total",
			Help: "Total number of failed order creation attempts",
		}),
		checkoutSettled: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_checkout_settled_total",
			Help: "Total number of checkouts settled after confirmed payment",
		}),
		paymentAttempts: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_payment_attempts_total",
			Help: "Total number of payment attempts by method",
		}, []string{"method"}),
		paymentFailed: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_payment_failed_total",
			Help: "Total number of failed payment attempts by method",
		}, []string{"method"}),
		settlementFallbacks: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_settlement_fallbacks_total",
			Help: "Total number of synthesized order records after a failed detail fetch",
		}),
		reconcileSuccess: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_reconcile_success_total",
			Help: "Total number of successful return-flow reconciliations",
		}),
		reconcileCanceled: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_reconcile_canceled_total",
			Help: "Total number of canceled return-flow reconciliations",
		}),
		reconcileReplayed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_reconcile_replayed_total",
			Help: "Total number of ignored replays of already consumed return parameters",
		}),
		checkoutDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "storefront_checkout_duration_seconds",
			Help:    "Duration from checkout submission to settlement in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		activeCheckouts: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "storefront_active_checkouts",
			Help: "Number of checkouts currently in a non-terminal phase",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordCheckoutStarted увеличивает счётчик начатых checkout.
func (m *CheckoutMetrics) RecordCheckoutStarted() {
	m.checkoutStarted.Inc()
	m.activeCheckouts.Inc()
}

// RecordOrderCreated увеличивает счётчик созданных заказов.
func (m *CheckoutMetrics) RecordOrderCreated() {
	m.ordersCreated.Inc()
}

// RecordOrderCreateFailed увеличивает счётчик неудачных созданий заказа.
func (m *CheckoutMetrics) RecordOrderCreateFailed() {
	m.orderCreateFailed.Inc()
	m.activeCheckouts.Dec()
}

// RecordPaymentAttempt увеличивает счётчик платёжных попыток для способа оплаты.
func (m *CheckoutMetrics) RecordPaymentAttempt(method PaymentMethod) {
	m.paymentAttempts.WithLabelValues(string(method)).Inc()
}

// RecordPaymentFailed увеличивает счётчик неудачных платежей для способа оплаты.
func (m *CheckoutMetrics) RecordPaymentFailed(method PaymentMethod) {
	m.paymentFailed.WithLabelValues(string(method)).Inc()
}

// RecordCheckoutSettled увеличивает счётчик завершённых checkout.
func (m *CheckoutMetrics) RecordCheckoutSettled() {
	m.checkoutSettled.Inc()
	m.activeCheckouts.Dec()
}

// RecordSettlementFallback отмечает синтезированную запись заказа.
func (m *CheckoutMetrics) RecordSettlementFallback() {
	m.settlementFallbacks.Inc()
}

// RecordReconcileSuccess увеличивает счётчик успешных реконсиляций возврата.
func (m *CheckoutMetrics) RecordReconcileSuccess() {
	m.reconcileSuccess.Inc()
}

// RecordReconcileCanceled увеличивает счётчик отменённых возвратов.
func (m *CheckoutMetrics) RecordReconcileCanceled() {
	m.reconcileCanceled.Inc()
}

// RecordReconcileReplayed отмечает повтор уже обработанных параметров возврата.
func (m *CheckoutMetrics) RecordReconcileReplayed() {
	m.reconcileReplayed.Inc()
}

// RecordCheckoutDuration записывает длительность checkout.
func (m *CheckoutMetrics) RecordCheckoutDuration(duration time.Duration) {
	m.checkoutDuration.Observe(duration.Seconds())
}
