package wave

import (
	"encoding/json"
	"reflect"

	"github.com/invopop/jsonschema"
)

// Schema returns the JSON schema of Config. It is sent to generative
// directors as the expected response shape.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
		ExpandedStruct:             true,
	}
	s := reflector.ReflectFromType(reflect.TypeOf(Config{}))
	s.Version = ""
	s.Title = "WaveConfig"
	s.Description = "Configuration of the next arena wave."

	// Numeric tags only take integers, and a zero bound is dropped.
	setKeyword(s, "enemySpeed", "exclusiveMinimum", 0)
	setKeyword(s, "aggressiveness", "minimum", 0)
	return s
}

func setKeyword(s *jsonschema.Schema, property, keyword string, value any) {
	v, ok := s.Properties.Get(property)
	if !ok {
		return
	}
	prop, ok := v.(*jsonschema.Schema)
	if !ok {
		return
	}
	if prop.Extras == nil {
		prop.Extras = make(map[string]interface{})
	}
	prop.Extras[keyword] = value
}

// SchemaJSON returns the indented JSON encoding of Schema.
func SchemaJSON() ([]byte, error) {
	return json.MarshalIndent(Schema(), "", "  ")
}
