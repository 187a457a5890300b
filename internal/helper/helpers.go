package helper

import (
	"fmt"
	"net/http"
	"sync"
)

// ErrorReporter receives errors raised by background tasks.
type ErrorReporter interface {
	ReportServerError(r *http.Request, err error)
}

type HelperInterface interface {
	NewEmailData() map[string]any
	BackgroundTask(r *http.Request, fn func() error)
}

type HelperRepository struct {
	baseUrl  *string
	WG       *sync.WaitGroup
	reporter ErrorReporter
}

// New builds the helper. reporter may be nil, in which case background errors
// are dropped.
func New(baseUrl *string, wg *sync.WaitGroup, reporter ErrorReporter) *HelperRepository {
	return &HelperRepository{
		baseUrl:  baseUrl,
		WG:       wg,
		reporter: reporter,
	}
}

func (h *HelperRepository) NewEmailData() map[string]any {
	data := map[string]any{
		"BaseURL": *h.baseUrl,
	}

	return data
}

// BackgroundTask runs fn in its own goroutine. The application waits on WG
// during shutdown so that in-flight tasks such as emails are not cut off.
func (h *HelperRepository) BackgroundTask(r *http.Request, fn func() error) {
	h.WG.Add(1)

	go func() {
		defer h.WG.Done()

		defer func() {
			err := recover()
			if err != nil {
				h.report(r, fmt.Errorf("%s", err))
			}
		}()

		err := fn()
		if err != nil {
			h.report(r, err)
		}
	}()
}

func (h *HelperRepository) report(r *http.Request, err error) {
	if h.reporter != nil {
		h.reporter.ReportServerError(r, err)
	}
}
