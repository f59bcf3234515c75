package yaml

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// SchemaGenerator reflects a JSON schema from Go types using their `json`
// and `jsonschema` struct tags.
type SchemaGenerator struct {
	v         any
	reflector *jsonschema.Reflector
}

func NewSchemaGenerator(v any) *SchemaGenerator {
	return &SchemaGenerator{
		v: v,
		reflector: &jsonschema.Reflector{
			Anonymous:                  true,
			DoNotReference:             true,
			ExpandedStruct:             true,
			RequiredFromJSONSchemaTags: true,
		},
	}
}

// Generate returns the indented JSON schema.
func (g *SchemaGenerator) Generate() ([]byte, error) {
	s := g.reflector.Reflect(g.v)

	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	return b, nil
}

// NewValidatorFor generates a schema for v and compiles it into a [Validator].
func NewValidatorFor(url string, v any) (*Validator, error) {
	data, err := NewSchemaGenerator(v).Generate()
	if err != nil {
		return nil, err
	}

	return NewValidator(url, data)
}
