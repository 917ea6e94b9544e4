package apidocs

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag/v2"
)

type saleHandler struct{}

func (h *saleHandler) Get(c *gin.Context) { c.Status(http.StatusOK) }

func testRoutes() gin.RoutesInfo {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	h := &saleHandler{}
	engine.GET("/health", func(c *gin.Context) {})
	engine.POST("/api/auth/login", func(c *gin.Context) {})
	engine.GET("/api/sales/:id", h.Get)
	engine.PUT("/api/sales/:id/prim-status", func(c *gin.Context) {})
	engine.GET("/swagger/*any", func(c *gin.Context) {})
	return engine.Routes()
}

func TestBuild(t *testing.T) {
	body, err := Build(testRoutes(), Info{Title: "Satış CRM", Version: "test"})
	require.NoError(t, err)

	var doc struct {
		OpenAPI string                          `json:"openapi"`
		Paths   map[string]map[string]operation `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(body, &doc))

	assert.Equal(t, "3.0.3", doc.OpenAPI)
	assert.NotContains(t, doc.Paths, "/swagger/{any}")

	get := doc.Paths["/api/sales/{id}"]["get"]
	assert.Equal(t, []string{"sales"}, get.Tags)
	assert.Equal(t, "sale Get", get.Summary)
	assert.Equal(t, "getApiSalesId", get.OperationID)
	require.Len(t, get.Parameters, 1)
	assert.Equal(t, "id", get.Parameters[0].Name)
	assert.NotEmpty(t, get.Security)

	assert.Empty(t, doc.Paths["/api/auth/login"]["post"].Security)
	assert.Equal(t, []string{"system"}, doc.Paths["/health"]["get"].Tags)
	assert.Equal(t, "putApiSalesIdPrimStatus", doc.Paths["/api/sales/{id}/prim-status"]["put"].OperationID)
}

func TestRegister(t *testing.T) {
	require.NoError(t, Register(testRoutes(), Info{Title: "first"}))
	require.NoError(t, Register(testRoutes(), Info{Title: "second"}))

	doc, err := swag.ReadDoc()
	require.NoError(t, err)
	assert.Contains(t, doc, `"second"`)
}
