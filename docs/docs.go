// Package docs registra la definición OpenAPI del servicio para swaggo/swag.
// swagger.json se regenera con `swag init -g cmd/api/main.go`.
package docs

import (
	_ "embed"

	"github.com/swaggo/swag"
)

//go:embed swagger.json
var docTemplate string

// SwaggerInfo información de la API expuesta en /docs.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Inventario Ledger API",
	Description:      "Categorías, productos, recepciones de stock, ventas y dashboard del inventario.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
