package mid

import (
	"context"
	"net/http"
	"strconv"

	"github.com/ardanlabs/ledger/business/sys/metrics"
	"github.com/ardanlabs/ledger/foundation/web"
)

// Metrics updates program counters for every request.
func Metrics(m *metrics.Metrics) web.Middleware {
	mw := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			err := handler(ctx, w, r)

			status := "0"
			if v, verr := web.GetValues(ctx); verr == nil {
				status = strconv.Itoa(v.StatusCode)
			}
			m.Request(r.Method, status)

			if err != nil {
				m.Error()
			}

			return err
		}

		return h
	}

	return mw
}
