// Package api holds the OpenAPI document for the HTTP surface.
package api

import _ "embed"

// OpenAPI is api/openapi.yaml, compiled into the binary.
//
//go:embed openapi.yaml
var OpenAPI []byte
