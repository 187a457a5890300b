package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHandleHealthCheck(t *testing.T) {
	h := NewHealthCheckHandler(newTestErrHandler(), map[string]Pinger{
		"database": pingFunc(func(context.Context) error { return nil }),
		"queue":    pingFunc(func(context.Context) error { return errors.New("connection refused") }),
	})

	rr := httptest.NewRecorder()
	h.HandleHealthCheck(rr, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var data struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rr).Data, &data))
	require.Equal(t, "available", data.Status)
	require.Equal(t, "up", data.Dependencies["database"])
	require.Equal(t, "down", data.Dependencies["queue"])
}
