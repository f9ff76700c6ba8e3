package echomw

import (
	"github.com/labstack/echo/v4"

	goprune "github.com/reoring/goprune"
	"github.com/reoring/goprune/middleware"
)

// PruneJSON replaces the request body with its pruned form and stores the
// Result in the request context, or responds with the issues payload.
func PruneJSON(m goprune.Descriptor, dopt goprune.DecodeOpt, opts ...goprune.Options) echo.MiddlewareFunc {
	if dopt == (goprune.DecodeOpt{}) {
		dopt = middleware.DefaultDecodeOpt()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res, out, err := middleware.PruneRequest(req, m, dopt, opts...)
			if err != nil {
				return c.JSON(middleware.Status(err), middleware.Payload(err))
			}
			middleware.ReplaceBody(req, out)
			c.SetRequest(req.WithContext(middleware.ContextWithResult(req.Context(), res)))
			return next(c)
		}
	}
}

// GetResult fetches the pruning Result from echo.Context.
func GetResult(c echo.Context) (middleware.Result, bool) {
	return middleware.ResultFromContext(c.Request().Context())
}
