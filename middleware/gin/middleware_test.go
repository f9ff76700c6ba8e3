package ginmw_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goprune "github.com/reoring/goprune"
	ginmw "github.com/reoring/goprune/middleware/gin"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	m := goprune.Shape{"name": goprune.String}
	r.POST("/users", ginmw.PruneJSON(m, goprune.DecodeOpt{}), func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		res, ok := ginmw.GetResult(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Header("X-Pruned", strconv.Itoa(res.Report.Count(goprune.CodeUnknownKey)))
		c.Data(http.StatusOK, "application/json", body)
	})
	return r
}

func TestPruneJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"name":"ann","admin":true}`))
	newRouter().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"name":"ann"}`, rec.Body.String())
	assert.Equal(t, "1", rec.Header().Get("X-Pruned"))
}

func TestPruneJSON_RejectsDuplicates(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"name":"a","name":"b"}`))
	newRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), goprune.CodeDuplicateKey)
}
