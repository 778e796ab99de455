package domain

import "fmt"

// PortKind distinguishes the addressable locations of data in a flow.
type PortKind uint8

const (
	PortInput PortKind = iota
	PortOutput
	PortGlobal
	PortCompTime
)

func (k PortKind) String() string {
	switch k {
	case PortInput:
		return "Input"
	case PortOutput:
		return "Output"
	case PortGlobal:
		return "Global"
	case PortCompTime:
		return "CompTime"
	default:
		return fmt.Sprintf("PortKind(%d)", uint8(k))
	}
}

// PortIdentifier addresses a value in a flow.
// It is comparable and is used directly as a map key: two identifiers are
// equal iff every field matches, including the kind.
// Fields that do not apply to a kind are left empty.
type PortIdentifier struct {
	Kind    PortKind `json:"kind"`
	NodeID  string   `json:"node_uid,omitempty"`
	PortKey string   `json:"port_key,omitempty"`
	DataKey string   `json:"data_key,omitempty"`
}

// InputPort addresses a named input of a node instance.
func InputPort(nodeID, key string) PortIdentifier {
	return PortIdentifier{Kind: PortInput, NodeID: nodeID, PortKey: key}
}

// OutputPort addresses a named output of a node instance.
func OutputPort(nodeID, key string) PortIdentifier {
	return PortIdentifier{Kind: PortOutput, NodeID: nodeID, PortKey: key}
}

// GlobalPort addresses a binding visible from every node of a compile unit.
func GlobalPort(key string) PortIdentifier {
	return PortIdentifier{Kind: PortGlobal, PortKey: key}
}

// CompTimePort addresses compile-time data attached to a node port.
func CompTimePort(nodeID, key, dataKey string) PortIdentifier {
	return PortIdentifier{Kind: PortCompTime, NodeID: nodeID, PortKey: key, DataKey: dataKey}
}

// IsInput reports whether p addresses a node input.
func (p PortIdentifier) IsInput() bool { return p.Kind == PortInput }

// IsOutput reports whether p addresses a node output.
func (p PortIdentifier) IsOutput() bool { return p.Kind == PortOutput }

func (p PortIdentifier) String() string {
	switch p.Kind {
	case PortInput:
		return fmt.Sprintf("Input: %s -> %s", p.NodeID, p.PortKey)
	case PortOutput:
		return fmt.Sprintf("Output: %s -> %s", p.NodeID, p.PortKey)
	case PortGlobal:
		return fmt.Sprintf("Global: %s", p.PortKey)
	case PortCompTime:
		return fmt.Sprintf("CompTime: %s -> %s (%s)", p.NodeID, p.PortKey, p.DataKey)
	default:
		return p.Kind.String()
	}
}
