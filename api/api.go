// Package api contains the OpenAPI definition of the admin API.
package api

import _ "embed"

//go:generate go run github.com/oapi-codegen/oapi-codegen/v2/cmd/oapi-codegen --config=oapi-codegen.yaml openapi.yaml

// OpenAPISpec is the raw admin API document served at /openapi.yaml.
//
//go:embed openapi.yaml
var OpenAPISpec []byte
