package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	projects := NewDomainGroup("projects", "/projects")
	projects.GET("", func(c *gin.Context) { c.String(http.StatusOK, "list") })
	projects.PUT("/:id/callouts", func(c *gin.Context) { c.String(http.StatusOK, "put "+c.Param("id")) })
	projects.DELETE("/:id/products/staged", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.Register(projects).Setup()

	w := serve(engine, "GET", "/api/v1/projects")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "list", w.Body.String())

	w = serve(engine, "PUT", "/api/v1/projects/4/callouts")
	assert.Equal(t, "put 4", w.Body.String())

	w = serve(engine, "DELETE", "/api/v1/projects/4/products/staged")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRouterUse(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine).Use(func(c *gin.Context) {
		c.Header("X-Api", "yes")
		c.Next()
	})

	group := NewDomainGroup("system", "/system")
	group.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.Register(group).Setup()

	w := serve(engine, "GET", "/api/v1/system/ping")
	assert.Equal(t, "yes", w.Header().Get("X-Api"))
}

func TestDomainGroup(t *testing.T) {
	engine := gin.New()

	var order []string
	group := NewDomainGroup("projects", "/projects").Use(func(c *gin.Context) {
		order = append(order, "group")
		c.Next()
	})
	sub := group.Group("products", "/:id/products")
	sub.POST("/refresh", func(c *gin.Context) {
		order = append(order, "handler")
		c.String(http.StatusOK, c.Param("id"))
	})

	assert.Equal(t, "projects", group.Name())
	assert.Equal(t, "/projects", group.Prefix())
	assert.Equal(t, "/:id/products", sub.Prefix())

	NewRouter(engine).Register(group).Setup()
	w := serve(engine, "POST", "/api/v1/projects/9/products/refresh")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "9", w.Body.String())
	assert.Equal(t, []string{"group", "handler"}, order)
}
