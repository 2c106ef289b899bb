// Package docs registra a documentação OpenAPI servida em /swagger/.
// Mantida à mão a partir das anotações dos handlers.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Autentica um operador",
                "parameters": [
                    {"description": "Usuário e senha", "name": "credentials", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.Credentials"}}
                ],
                "responses": {
                    "200": {"description": "Token emitido", "schema": {"$ref": "#/definitions/auth.TokenResponse"}},
                    "400": {"description": "Payload inválido", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "401": {"description": "Credenciais inválidas", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/stocks": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["stocks"],
                "summary": "Lista estoques",
                "parameters": [
                    {"type": "string", "description": "Trecho da descrição", "name": "description", "in": "query"},
                    {"type": "integer", "description": "Trecho do código", "name": "product_id", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Stock"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["stocks"],
                "summary": "Cadastra um item de estoque",
                "parameters": [
                    {"description": "Dados do item", "name": "stock", "in": "body", "required": true, "schema": {"$ref": "#/definitions/stockservice.StockForm"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Stock"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["stocks"],
                "summary": "Remove todos os itens",
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/stocks/lookup": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["stocks"],
                "summary": "Localiza um item pela descrição",
                "parameters": [
                    {"type": "string", "description": "Trecho da descrição", "name": "description", "in": "query"},
                    {"type": "string", "description": "Descrição exata", "name": "exact", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/stock.LookupResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/stocks/report": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["text/plain"],
                "tags": ["stocks"],
                "summary": "Relatório textual do estoque",
                "responses": {
                    "200": {"description": "Um bloco por item separado por ---", "schema": {"type": "string"}}
                }
            }
        },
        "/stocks/{id}": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["stocks"],
                "summary": "Obtém um item pelo productID",
                "parameters": [{"type": "integer", "description": "productID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Stock"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            },
            "patch": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["stocks"],
                "summary": "Edita preço, quantidade e limite de reposição",
                "parameters": [
                    {"type": "integer", "description": "productID", "name": "id", "in": "path", "required": true},
                    {"description": "Novos valores", "name": "form", "in": "body", "required": true, "schema": {"$ref": "#/definitions/stockservice.EditForm"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/stock.EditResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "422": {"description": "Algum campo foi rejeitado", "schema": {"$ref": "#/definitions/stock.EditResponse"}}
                }
            },
            "delete": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["stocks"],
                "summary": "Remove um item",
                "parameters": [{"type": "integer", "description": "productID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/stocks/{id}/add": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["stocks"],
                "summary": "Soma unidades ao estoque",
                "parameters": [
                    {"type": "integer", "description": "productID", "name": "id", "in": "path", "required": true},
                    {"description": "Quantidade", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/stock.QuantityRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Stock"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/stocks/{id}/sell": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["stocks"],
                "summary": "Registra uma venda",
                "parameters": [
                    {"type": "integer", "description": "productID", "name": "id", "in": "path", "required": true},
                    {"description": "Dados da venda", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/stock.SellRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Stock"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/stocks/{id}/stats": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["stocks"],
                "summary": "Contadores de venda de um item",
                "parameters": [{"type": "integer", "description": "productID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/stock.StatsResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "auth.TokenResponse": {
            "type": "object",
            "properties": {"token": {"type": "string"}}
        },
        "domain.Credentials": {
            "type": "object",
            "properties": {"username": {"type": "string"}, "password": {"type": "string"}}
        },
        "domain.ErrorResponse": {
            "description": "Estrutura padronizada para respostas de erro na API.",
            "type": "object",
            "properties": {
                "code": {"type": "integer", "example": 400},
                "category": {"type": "string", "example": "VALIDATION_ERROR"},
                "message": {"type": "string", "example": "A quantidade não pode ser negativa."}
            }
        },
        "domain.Stock": {
            "type": "object",
            "properties": {
                "product_id": {"type": "integer"},
                "description": {"type": "string"},
                "price": {"type": "string", "example": "10.00"},
                "quantity": {"type": "integer"},
                "safe_stock_amount": {"type": "integer"},
                "total_from_sales": {"type": "string", "example": "20.00"},
                "number_sold": {"type": "integer"}
            }
        },
        "stock.EditResponse": {
            "type": "object",
            "properties": {
                "fields": {"type": "object", "additionalProperties": {"type": "string"}},
                "stock": {"$ref": "#/definitions/domain.Stock"}
            }
        },
        "stock.LookupResponse": {
            "type": "object",
            "properties": {"product_id": {"type": "integer"}}
        },
        "stock.QuantityRequest": {
            "type": "object",
            "properties": {"quantity": {"type": "integer"}}
        },
        "stock.SellRequest": {
            "type": "object",
            "properties": {
                "quantity": {"type": "integer"},
                "price_per_stock": {"type": "string"},
                "discount_multiplier": {"type": "string", "example": "0.90"}
            }
        },
        "stock.StatsResponse": {
            "type": "object",
            "properties": {
                "product_id": {"type": "integer"},
                "number_sold": {"type": "integer"},
                "total_revenue": {"type": "string"}
            }
        },
        "stockservice.EditForm": {
            "type": "object",
            "properties": {
                "price": {"type": "string"},
                "quantity": {"type": "integer"},
                "safe_stock_amount": {"type": "integer"}
            }
        },
        "stockservice.StockForm": {
            "type": "object",
            "properties": {
                "product_id": {"type": "integer"},
                "description": {"type": "string"},
                "price": {"type": "string"},
                "quantity": {"type": "integer"},
                "safe_stock_amount": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo guarda os metadados exportados da documentação.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/v1",
	Schemes:          []string{},
	Title:            "StockManager API",
	Description:      "Controle de estoque com venda, reposição automática e relatório.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
