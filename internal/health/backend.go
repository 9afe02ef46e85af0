package health

import (
	"context"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// backendProbeTimeout ограничивает проверку доступности backend.
const backendProbeTimeout = 5 * time.Second

// slowBackendThreshold — граница, после которой backend считается degraded.
const slowBackendThreshold = 2 * time.Second

// BackendChecker проверяет доступность storefront-backend обращением к
// каталогу товаров: это самый дешёвый публичный endpoint.
type BackendChecker struct {
	gateway domain.BackendGateway
}

// NewBackendChecker создаёт проверку доступности backend
func NewBackendChecker(gateway domain.BackendGateway) *BackendChecker {
	return &BackendChecker{gateway: gateway}
}

// Check выполняет проверку
func (c *BackendChecker) Check(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, backendProbeTimeout)
	defer cancel()

	start := time.Now()
	_, err := c.gateway.Products(ctx)
	duration := time.Since(start)

	if err != nil {
		return Check{
			Name:       "backend",
			Status:     StatusUnhealthy,
			Message:    err.Error(),
			DurationMs: duration.Milliseconds(),
		}
	}

	status := StatusHealthy
	if duration > slowBackendThreshold {
		status = StatusDegraded
	}
	return Check{
		Name:       "backend",
		Status:     status,
		DurationMs: duration.Milliseconds(),
	}
}
