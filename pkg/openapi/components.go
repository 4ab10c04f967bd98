package openapi

import "maps"

// NewComponents creates Components with the error responses every API
// returns.
func NewComponents() *Components {
	return &Components{
		Schemas: map[string]*Schema{},
		Responses: map[string]*Response{
			"BadRequest":  ErrorResponse("Invalid request"),
			"NotFound":    ErrorResponse("Resource not found"),
			"Unavailable": ErrorResponse("A dependency is unavailable"),
		},
	}
}

// AddSchemas merges schemas into the component schemas.
func (c *Components) AddSchemas(schemas map[string]*Schema) {
	maps.Copy(c.Schemas, schemas)
}

// AddResponses merges responses into the component responses.
func (c *Components) AddResponses(responses map[string]*Response) {
	maps.Copy(c.Responses, responses)
}

// SchemaRef references a component schema.
func SchemaRef(name string) *Schema {
	return &Schema{Ref: "#/components/schemas/" + name}
}

// ResponseRef references a component response.
func ResponseRef(name string) *Response {
	return &Response{Ref: "#/components/responses/" + name}
}

// Object is an object schema with the given properties.
func Object(props map[string]*Schema, required ...string) *Schema {
	return &Schema{Type: "object", Properties: props, Required: required}
}

// ArrayOf is an array schema of items.
func ArrayOf(items *Schema) *Schema {
	return &Schema{Type: "array", Items: items}
}

// Binary is a schema for raw file content.
func Binary() *Schema {
	return &Schema{Type: "string", Format: "binary"}
}

// ErrorResponse describes a JSON body of the form {"error": "..."}.
func ErrorResponse(description string) *Response {
	return &Response{
		Description: description,
		Content: map[string]*MediaType{
			"application/json": {Schema: Object(map[string]*Schema{
				"error": {Type: "string"},
			}, "error")},
		},
	}
}

// RequestBodyJSON is a JSON request body of the named component schema.
func RequestBodyJSON(schema string, required bool) *RequestBody {
	return &RequestBody{
		Required: required,
		Content:  map[string]*MediaType{"application/json": {Schema: SchemaRef(schema)}},
	}
}

// ResponseJSON is a JSON response of the named component schema.
func ResponseJSON(description, schema string) *Response {
	return &Response{
		Description: description,
		Content:     map[string]*MediaType{"application/json": {Schema: SchemaRef(schema)}},
	}
}

// ResponseFile is a binary response in any of the given content types.
func ResponseFile(description string, contentTypes ...string) *Response {
	content := make(map[string]*MediaType, len(contentTypes))
	for _, ct := range contentTypes {
		content[ct] = &MediaType{Schema: Binary()}
	}
	return &Response{Description: description, Content: content}
}

// PathParam is a required UUID path parameter.
func PathParam(name, description string) *Parameter {
	return &Parameter{
		Name:        name,
		In:          "path",
		Required:    true,
		Description: description,
		Schema:      &Schema{Type: "string", Format: "uuid"},
	}
}

// QueryParam is an optional query parameter of the given JSON type.
func QueryParam(name, typ, description string) *Parameter {
	return &Parameter{
		Name:        name,
		In:          "query",
		Description: description,
		Schema:      &Schema{Type: typ},
	}
}
