package codec

import (
	"encoding/json"
	"fmt"
)

// Metadata is a codec entry in array metadata: a name and a configuration
// object. It always serializes in the object form, never as a bare string.
type Metadata struct {
	Name          string
	Configuration json.RawMessage
}

// NewMetadata builds a metadata entry by marshalling config. A nil config
// yields an empty configuration object.
func NewMetadata(name string, config any) Metadata {
	if config == nil {
		return Metadata{Name: name, Configuration: json.RawMessage("{}")}
	}
	raw, err := json.Marshal(config)
	if err != nil {
		// Configurations are plain structs of scalars and slices; a marshal
		// failure is a programming error.
		panic(fmt.Sprintf("marshalling codec configuration for %q: %v", name, err))
	}
	return Metadata{Name: name, Configuration: raw}
}

type metadataJSON struct {
	Name          string          `json:"name"`
	Configuration json.RawMessage `json:"configuration,omitempty"`
}

// MarshalJSON serializes the metadata in object form.
func (m Metadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(metadataJSON{Name: m.Name, Configuration: m.Configuration})
}

// UnmarshalJSON accepts the object form and, for compatibility with older
// writers, the bare string form.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		m.Name = name
		m.Configuration = json.RawMessage("{}")
		return nil
	}
	var obj metadataJSON
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	m.Name = obj.Name
	m.Configuration = obj.Configuration
	if m.Configuration == nil {
		m.Configuration = json.RawMessage("{}")
	}
	return nil
}

// Constructor builds a codec from its configuration object.
type Constructor func(config json.RawMessage) (Codec, error)

var registry = map[string]Constructor{}

// Register installs a constructor for a codec name. Built-in codecs are
// registered at package initialisation; extensions may register at any time
// before metadata is parsed.
func Register(name string, c Constructor) {
	registry[name] = c
}

// FromMetadata constructs the codec named by the metadata entry.
func FromMetadata(m Metadata) (Codec, error) {
	c, ok := registry[m.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, m.Name)
	}
	codec, err := c(m.Configuration)
	if err != nil {
		return nil, fmt.Errorf("creating codec %q: %w", m.Name, err)
	}
	return codec, nil
}
