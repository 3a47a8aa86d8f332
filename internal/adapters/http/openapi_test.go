package http_test

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/flyover/api"
)

func loadOpenAPI(t *testing.T) *openapi3.T {
	t.Helper()
	loader := &openapi3.Loader{IsExternalRefsAllowed: false}
	spec, err := loader.LoadFromData(api.OpenAPI)
	if err != nil {
		t.Fatalf("failed to parse OpenAPI document: %v", err)
	}
	return spec
}

// TestOpenAPISpec validates the embedded OpenAPI document.
func TestOpenAPISpec(t *testing.T) {
	spec := loadOpenAPI(t)

	if err := spec.Validate(context.Background()); err != nil {
		t.Fatalf("OpenAPI validation failed: %v", err)
	}

	// Check that key paths exist
	expectedPaths := []string{
		"/v1/health",
		"/v1/ready",
		"/directions",
		"/v1/directions",
		"/v1/places",
		"/v1/search/tiers",
		"/v1/light",
		"/graphql",
	}
	for _, path := range expectedPaths {
		if item := spec.Paths.Find(path); item == nil {
			t.Errorf("expected path %s not found", path)
		}
	}

	// Verify key schemas exist
	expectedSchemas := []string{
		"APIError",
		"GeoPoint",
		"Place",
		"LineString",
		"DirectionsResponse",
		"PlacesResponse",
		"SearchTier",
		"LightResponse",
	}
	for _, schema := range expectedSchemas {
		if spec.Components.Schemas[schema] == nil {
			t.Errorf("expected schema %s not found", schema)
		}
	}

	t.Logf("OpenAPI valid: %d paths, %d schemas", len(spec.Paths.Map()), len(spec.Components.Schemas))
}

// TestOpenAPIInfo verifies document metadata.
func TestOpenAPIInfo(t *testing.T) {
	spec := loadOpenAPI(t)

	if spec.Info.Title != "Flyover API" {
		t.Errorf("expected title 'Flyover API', got %q", spec.Info.Title)
	}
	if spec.Info.Version != "1.0.0" {
		t.Errorf("expected version 1.0.0, got %q", spec.Info.Version)
	}
	if spec.Info.Description == "" {
		t.Error("expected non-empty description")
	}
	if len(spec.Servers) == 0 {
		t.Fatal("expected at least one server")
	}
}

// TestOpenAPICoversRoutes checks every public REST and GraphQL route is
// documented.
func TestOpenAPICoversRoutes(t *testing.T) {
	spec := loadOpenAPI(t)
	app := setupApp(makeDeps())

	undocumented := map[string]bool{"/metrics": true, "/ws": true}
	for _, r := range app.GetRoutes(true) {
		if r.Method != fiber.MethodGet && r.Method != fiber.MethodPost {
			continue
		}
		if undocumented[r.Path] || strings.HasPrefix(r.Path, "/docs") {
			continue
		}
		item := spec.Paths.Find(r.Path)
		if item == nil {
			t.Errorf("%s %s is not documented", r.Method, r.Path)
			continue
		}
		if item.GetOperation(r.Method) == nil {
			t.Errorf("%s %s has no documented operation", r.Method, r.Path)
		}
	}
}

func TestDocsServesEmbeddedSpec(t *testing.T) {
	app := setupApp(makeDeps())

	resp, err := app.Test(httptest.NewRequest("GET", "/docs/openapi.yaml", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp.Body); !bytes.Equal(body, api.OpenAPI) {
		t.Error("served document differs from the embedded one")
	}

	req := httptest.NewRequest("GET", "/docs/openapi.yaml", nil)
	req.Header.Set("If-None-Match", resp.Header.Get("ETag"))
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 304 {
		t.Fatalf("expected 304 for a matching ETag, got %d", resp.StatusCode)
	}
}
