package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/integrations/nrecho-v4"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/deppfellow/genoportal/internal/query"
	"github.com/deppfellow/genoportal/internal/server"
)

// TracingMiddleware owns the New Relic middleware. nrApp is nil when New
// Relic is disabled, in which case every method degrades to a pass-through.
type TracingMiddleware struct {
	server *server.Server
	nrApp  *newrelic.Application
}

// NewTracingMiddleware constructs TracingMiddleware.
func NewTracingMiddleware(s *server.Server, nrApp *newrelic.Application) *TracingMiddleware {
	return &TracingMiddleware{
		server: s,
		nrApp:  nrApp,
	}
}

// NewRelicMiddleware starts one transaction per request and puts it on the
// request context, which is what newrelic.FromContext reads later.
func (tm *TracingMiddleware) NewRelicMiddleware() echo.MiddlewareFunc {
	if tm.nrApp == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}
	return nrecho.Middleware(tm.nrApp)
}

// EnhanceTracing tags the transaction with client details and the request
// id, and notices handler errors with their stack. Static assets are left
// untagged.
//
// Must run after NewRelicMiddleware and RequestID.
func (tm *TracingMiddleware) EnhanceTracing() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			txn := newrelic.FromContext(c.Request().Context())
			if txn == nil || strings.HasPrefix(c.Request().URL.Path, "/static/") {
				return next(c)
			}

			txn.AddAttribute("http.real_ip", c.RealIP())
			txn.AddAttribute("http.user_agent", c.Request().UserAgent())
			if requestID := GetRequestID(c); requestID != "" {
				txn.AddAttribute("request.id", requestID)
			}

			err := next(c)
			if err != nil {
				// The error still goes on to GlobalErrorHandler.
				txn.NoticeError(nrpkgerrors.Wrap(err))
			}

			txn.AddAttribute("http.status_code", c.Response().Status)
			return err
		}
	}
}

// TraceSearch records the shape of a parsed search on the transaction.
// Families are comma separated so they can be faceted on.
func TraceSearch(c echo.Context, tab string, criteria query.Criteria) {
	txn := newrelic.FromContext(c.Request().Context())
	if txn == nil {
		return
	}

	txn.AddAttribute("search.tab", tab)
	txn.AddAttribute("search.condition", criteria.Condition)
	txn.AddAttribute("search.cell_type", criteria.CellType)
	txn.AddAttribute("search.families", strings.Join(criteria.Families(), ","))
	txn.AddAttribute("search.include_de", criteria.IncludeDE)
}
