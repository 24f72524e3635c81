package tools

import (
	"github.com/invopop/jsonschema"
	"google.golang.org/genai"
)

// GenerateSchema derives a JSON Schema from a tool input struct. Schemas are
// inlined (no $ref) and closed to unknown properties so the model sees the
// exact input shape.
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)
	// The wire contract carries no $schema marker.
	schema.Version = ""
	return schema
}

// FunctionDeclarations converts the tool catalog to the Gemini function
// declaration format. This is the only place the wire schema crosses into
// the model SDK's types; everything upstream works with ToolDefinition.
func FunctionDeclarations() []*genai.FunctionDeclaration {
	defs := Definitions()
	decls := make([]*genai.FunctionDeclaration, 0, len(defs))
	for _, def := range defs {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        def.Name,
			Description: def.Description,
			Parameters:  toGenAISchema(def.InputSchema),
		})
	}
	return decls
}

func toGenAISchema(s *jsonschema.Schema) *genai.Schema {
	if s == nil {
		return nil
	}

	out := &genai.Schema{
		Type:        genAIType(s.Type),
		Description: s.Description,
		Required:    s.Required,
	}

	if s.Properties != nil && s.Properties.Len() > 0 {
		out.Properties = make(map[string]*genai.Schema, s.Properties.Len())
		for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
			out.Properties[pair.Key] = toGenAISchema(pair.Value)
		}
	}

	if s.Items != nil {
		out.Items = toGenAISchema(s.Items)
	}

	return out
}

func genAIType(t string) genai.Type {
	switch t {
	case "object":
		return genai.TypeObject
	case "array":
		return genai.TypeArray
	case "string":
		return genai.TypeString
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeUnspecified
	}
}
