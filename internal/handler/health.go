package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/cradoe/coinledger/internal/errHandler"
	"github.com/cradoe/coinledger/internal/response"
	"github.com/cradoe/coinledger/internal/version"
)

const healthCheckTimeout = 2 * time.Second

// Pinger is a dependency whose reachability is reported by the health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthCheckHandler struct {
	err          *errHandler.ErrorRepository
	dependencies map[string]Pinger
}

func NewHealthCheckHandler(err *errHandler.ErrorRepository, dependencies map[string]Pinger) *healthCheckHandler {
	return &healthCheckHandler{
		err:          err,
		dependencies: dependencies,
	}
}

func (app *healthCheckHandler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	checks := make(map[string]any, len(app.dependencies))
	for name, dep := range app.dependencies {
		if err := dep.Ping(ctx); err != nil {
			checks[name] = "down"
			continue
		}
		checks[name] = "up"
	}

	data := map[string]any{
		"status":       "available",
		"version":      version.Get(),
		"dependencies": checks,
	}

	message := "Up and grateful"

	err := response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		app.err.ServerError(w, r, err)
	}
}
