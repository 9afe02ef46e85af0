package app

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/backend"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/processor/stripeconfirm"
	"github.com/vladislavdragonenkov/storefront/internal/service/web"
	"github.com/vladislavdragonenkov/storefront/internal/settings"
)

// Dependencies содержит все зависимости приложения.
type Dependencies struct {
	Gateway   domain.BackendGateway
	Confirmer domain.PaymentConfirmer
	Catalog   *web.Catalog
	Settings  *settings.Store
	Logger    *log.Entry
}

// NewDependencies создаёт и инициализирует все зависимости приложения.
// Без ключа Stripe карточное подтверждение отключено: Confirmer остаётся nil,
// оркестратор вернёт понятную ошибку при попытке карточной оплаты.
func NewDependencies(cfg Config, logger *log.Entry) *Dependencies {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	gateway := backend.NewClient(cfg.APIBaseURL, logger.WithField("component", "backend_client"))

	var confirmer domain.PaymentConfirmer
	if cfg.StripeKey != "" {
		confirmer = stripeconfirm.New(cfg.StripeKey, logger.WithField("component", "stripe_confirmer"))
	} else {
		logger.Warn("stripe key is not set, card payments are disabled")
	}

	return &Dependencies{
		Gateway:   gateway,
		Confirmer: confirmer,
		Catalog:   web.NewCatalog(gateway, logger.WithField("component", "catalog")),
		Settings:  settings.NewStore(cfg.SettingsPath, logger.WithField("component", "settings")),
		Logger:    logger,
	}
}
