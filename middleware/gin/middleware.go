package ginmw

import (
	"github.com/gin-gonic/gin"

	goprune "github.com/reoring/goprune"
	"github.com/reoring/goprune/middleware"
)

// PruneJSON replaces the request body with its pruned form and stores the
// Result in the request context. Failures abort with the issues payload. A
// zero dopt selects middleware.DefaultDecodeOpt.
func PruneJSON(m goprune.Descriptor, dopt goprune.DecodeOpt, opts ...goprune.Options) gin.HandlerFunc {
	if dopt == (goprune.DecodeOpt{}) {
		dopt = middleware.DefaultDecodeOpt()
	}
	return func(c *gin.Context) {
		res, out, err := middleware.PruneRequest(c.Request, m, dopt, opts...)
		if err != nil {
			c.AbortWithStatusJSON(middleware.Status(err), middleware.Payload(err))
			return
		}
		middleware.ReplaceBody(c.Request, out)
		c.Request = c.Request.WithContext(middleware.ContextWithResult(c.Request.Context(), res))
		c.Next()
	}
}

// GetResult fetches the pruning Result from gin.Context.
func GetResult(c *gin.Context) (middleware.Result, bool) {
	return middleware.ResultFromContext(c.Request.Context())
}
