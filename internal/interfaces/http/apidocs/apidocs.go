// Package apidocs builds the OpenAPI document served by the Swagger UI from
// the registered gin routes.
package apidocs

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/swaggo/swag/v2"
)

// Info describes the API in the document header
type Info struct {
	Title       string
	Description string
	Version     string
}

// publicPaths are served without a bearer token
var publicPaths = map[string]bool{
	"/health":           true,
	"/api/auth/login":   true,
	"/api/auth/refresh": true,
}

var paramPattern = regexp.MustCompile(`[:*]([A-Za-z0-9_]+)`)

// handlerPattern extracts "SaleHandler.Create" from gin's handler name
var handlerPattern = regexp.MustCompile(`\(\*?([A-Za-z0-9_]+)\)\.([A-Za-z0-9_]+)`)

type operation struct {
	Tags        []string              `json:"tags,omitempty"`
	Summary     string                `json:"summary"`
	OperationID string                `json:"operationId"`
	Parameters  []parameter           `json:"parameters,omitempty"`
	Security    []map[string][]string `json:"security,omitempty"`
	Responses   map[string]response   `json:"responses"`
}

type parameter struct {
	Name     string            `json:"name"`
	In       string            `json:"in"`
	Required bool              `json:"required"`
	Schema   map[string]string `json:"schema"`
}

type response struct {
	Description string `json:"description"`
}

// Build renders an OpenAPI 3 document for routes.
func Build(routes gin.RoutesInfo, info Info) ([]byte, error) {
	paths := map[string]map[string]operation{}
	for _, route := range routes {
		if strings.HasPrefix(route.Path, "/swagger") {
			continue
		}
		path := paramPattern.ReplaceAllString(route.Path, "{$1}")
		if paths[path] == nil {
			paths[path] = map[string]operation{}
		}
		paths[path][strings.ToLower(route.Method)] = describe(route, path)
	}

	doc := map[string]any{
		"openapi": "3.0.3",
		"info": map[string]string{
			"title":       info.Title,
			"description": info.Description,
			"version":     info.Version,
		},
		"servers": []map[string]string{{"url": "/"}},
		"paths":   paths,
		"components": map[string]any{
			"securitySchemes": map[string]any{
				"bearerAuth": map[string]string{"type": "http", "scheme": "bearer", "bearerFormat": "JWT"},
			},
		},
	}
	return json.MarshalIndent(doc, "", "  ")
}

func describe(route gin.RouteInfo, path string) operation {
	op := operation{
		Tags:        []string{tagFor(route.Path)},
		Summary:     summaryFor(route),
		OperationID: operationID(route.Method, path),
		Responses: map[string]response{
			"200": {Description: "Başarılı"},
			"400": {Description: "Geçersiz istek"},
			"401": {Description: "Kimlik doğrulama gerekli"},
			"403": {Description: "Yetki yok"},
		},
	}
	for _, match := range paramPattern.FindAllStringSubmatch(route.Path, -1) {
		op.Parameters = append(op.Parameters, parameter{
			Name:     match[1],
			In:       "path",
			Required: true,
			Schema:   map[string]string{"type": "string"},
		})
	}
	if !publicPaths[route.Path] {
		op.Security = []map[string][]string{{"bearerAuth": {}}}
	}
	return op
}

// tagFor groups routes by the first segment after /api
func tagFor(path string) string {
	parts := strings.Split(strings.TrimPrefix(path, "/api/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return "system"
	}
	return strings.TrimPrefix(parts[0], "/")
}

func summaryFor(route gin.RouteInfo) string {
	if m := handlerPattern.FindStringSubmatch(route.Handler); m != nil {
		return strings.TrimSuffix(m[1], "Handler") + " " + strings.TrimSuffix(m[2], "-fm")
	}
	return route.Method + " " + route.Path
}

func operationID(method, path string) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(method))
	for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '-' || r == '{' || r == '}' }) {
		b.WriteString(strings.ToUpper(part[:1]) + part[1:])
	}
	return b.String()
}

// document is the instance handed to swag; Register swaps its body.
type document struct {
	mu   sync.RWMutex
	body string
}

func (d *document) ReadDoc() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.body
}

var (
	current      = &document{}
	registerOnce sync.Once
)

// Register publishes the document under swag's default instance, which is
// where the Swagger UI handler reads it from. Later calls replace it.
func Register(routes gin.RoutesInfo, info Info) error {
	body, err := Build(routes, info)
	if err != nil {
		return fmt.Errorf("build api document: %w", err)
	}
	current.mu.Lock()
	current.body = string(body)
	current.mu.Unlock()

	registerOnce.Do(func() { swag.Register(swag.Name, current) })
	return nil
}
