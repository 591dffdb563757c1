package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
)

var (
	promMu        sync.Mutex
	promByService = map[string]*fiberprometheus.FiberPrometheus{}
)

// InitMetrics creates the Prometheus HTTP middleware for the given service name.
// Collectors live on the default registry, so repeated calls for one name
// return the same instance.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promMu.Lock()
	defer promMu.Unlock()
	if prom, ok := promByService[serviceName]; ok {
		return prom
	}
	prom := fiberprometheus.New(serviceName)
	prom.SetSkipPaths([]string{"/metrics", "/health/live", "/health/ready"})
	promByService[serviceName] = prom
	return prom
}

// MetricsMiddleware returns the request instrumentation handler.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
