// Package assets embeds static files served by the collector.
package assets

import _ "embed"

// OpenApiData is the OpenAPI document behind the Swagger UI.
//
//go:embed openapi.yaml
var OpenApiData []byte
