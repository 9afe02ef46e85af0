package app

import (
	"github.com/vladislavdragonenkov/storefront/internal/cart"
	"github.com/vladislavdragonenkov/storefront/internal/checkout"
	"github.com/vladislavdragonenkov/storefront/internal/service/web"
)

// createSessionFactory собирает состояние браузерной сессии: корзину,
// оркестратор checkout и реконсилер возврата. Оркестратор получает sink
// аналитики, когда Kafka настроена.
func createSessionFactory(deps *Dependencies, sink checkout.EventSink) web.SessionFactory {
	return func(id string) *web.Session {
		store := cart.NewStore()
		logger := deps.Logger.WithField("session_id", id)
		navigator := &web.BrowserNavigator{}

		var orchestrator *checkout.Orchestrator
		if sink != nil {
			orchestrator = checkout.NewOrchestratorWithEvents(
				store,
				deps.Gateway,
				deps.Confirmer,
				navigator,
				sink,
				logger.WithField("component", "checkout"),
			)
		} else {
			orchestrator = checkout.NewOrchestrator(
				store,
				deps.Gateway,
				deps.Confirmer,
				navigator,
				logger.WithField("component", "checkout"),
			)
		}

		reconciler := checkout.NewReconciler(
			store,
			deps.Gateway,
			deps.Catalog.Refresh,
			logger.WithField("component", "reconciler"),
		)
		if sink != nil {
			reconciler.SetEventSink(sink)
		}

		return &web.Session{
			Cart:       store,
			Checkout:   orchestrator,
			Reconciler: reconciler,
		}
	}
}
