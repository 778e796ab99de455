package registry

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/disbotter/disbotter/pkg/domain"
)

// DataType is the editor's numeric port type.
type DataType uint8

const (
	DataFlow DataType = iota
	DataNumber
	DataText
	DataBoolean
	DataStruct
	DataAny
)

// DefaultPortIndex orders ports that declare no index.
const DefaultPortIndex = 100

// ParseDataType maps a script type name to a DataType.
// Unknown names map to DataAny.
func ParseDataType(s string) DataType {
	switch s {
	case "flow":
		return DataFlow
	case "number":
		return DataNumber
	case "text":
		return DataText
	case "boolean":
		return DataBoolean
	case "struct":
		return DataStruct
	default:
		return DataAny
	}
}

func (d DataType) String() string {
	switch d {
	case DataFlow:
		return "flow"
	case DataNumber:
		return "number"
	case DataText:
		return "text"
	case DataBoolean:
		return "boolean"
	case DataStruct:
		return "struct"
	default:
		return "any"
	}
}

// Port is a declared input or output of a template.
type Port struct {
	Key        string
	Name       string
	Type       DataType
	StructTags []string
	Index      int
	// StartValue is the editor default for inputs, nil when absent.
	StartValue any
}

// PortType is the JSON shape of a port type.
type PortType struct {
	Type       DataType `json:"type"`
	StructTags []string `json:"structTags"`
}

// PortDeclaration is the JSON shape of a port.
type PortDeclaration struct {
	Type PortType `json:"type"`
	Name string   `json:"name"`
}

// PortList is an ordered set of port declarations encoded as a JSON object
// whose keys keep their order.
type PortList []KeyedPort

// KeyedPort pairs a port key with its declaration.
type KeyedPort struct {
	Key         string
	Declaration PortDeclaration
}

// MarshalJSON encodes the list as an object in list order.
func (l PortList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(p.Declaration)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Declaration is the editor-facing description of a template.
type Declaration struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	Category         string         `json:"category"`
	Inputs           PortList       `json:"inputs"`
	Outputs          PortList       `json:"outputs"`
	DefaultHardcoded map[string]any `json:"defaultHardcoded"`
}

// Declaration builds the editor declaration of t.
// Flow ports come first unless the template opts out of them or is pure;
// declared ports follow, ordered by index and then key.
func (t Template) Declaration() Declaration {
	d := Declaration{
		ID:               t.Type,
		Title:            t.Title,
		Description:      t.Description,
		Category:         t.Category,
		Inputs:           PortList{},
		Outputs:          PortList{},
		DefaultHardcoded: map[string]any{},
	}

	if !t.NoFlowIn && !t.Pure {
		d.Inputs = append(d.Inputs, flowPort(domain.PortFlowIn, "flow_in"))
	}
	if !t.NoFlowOut && !t.Pure {
		d.Outputs = append(d.Outputs, flowPort(domain.PortFlowOut, "flow_out"))
	}

	d.Inputs = append(d.Inputs, declarePorts(t.Inputs)...)
	d.Outputs = append(d.Outputs, declarePorts(t.Outputs)...)

	for _, in := range t.Inputs {
		if in.StartValue != nil {
			d.DefaultHardcoded[in.Key] = in.StartValue
		}
	}
	return d
}

func flowPort(key, name string) KeyedPort {
	return KeyedPort{
		Key: key,
		Declaration: PortDeclaration{
			Type: PortType{Type: DataFlow, StructTags: []string{}},
			Name: name,
		},
	}
}

func declarePorts(ports []Port) PortList {
	sorted := make([]Port, len(ports))
	copy(sorted, ports)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Index != sorted[j].Index {
			return sorted[i].Index < sorted[j].Index
		}
		return sorted[i].Key < sorted[j].Key
	})

	out := make(PortList, 0, len(sorted))
	for _, p := range sorted {
		tags := p.StructTags
		if tags == nil {
			tags = []string{}
		}
		out = append(out, KeyedPort{
			Key: p.Key,
			Declaration: PortDeclaration{
				Type: PortType{Type: p.Type, StructTags: tags},
				Name: p.Name,
			},
		})
	}
	return out
}

// Declarations returns the declaration of every template, in Templates order.
func (r *Registry) Declarations() []Declaration {
	templates := r.Templates()
	out := make([]Declaration, 0, len(templates))
	for _, t := range templates {
		out = append(out, t.Declaration())
	}
	return out
}
