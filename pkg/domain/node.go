package domain

import "strings"

// Node is one placed instance of a node template inside a flow.
type Node struct {
	UID  string `json:"uid" yaml:"uid" mapstructure:"uid"`
	Type string `json:"type" yaml:"type" mapstructure:"type"` // key into the template registry

	// InputHardcoded holds literal values typed into unwired inputs in the editor.
	// Values are strings, numbers or booleans; anything else renders as empty text.
	InputHardcoded map[string]any `json:"inputHardcoded,omitempty" yaml:"inputHardcoded,omitempty" mapstructure:"inputHardcoded"`
}

// PortIn returns the identifier of one of the node's inputs.
func (n *Node) PortIn(key string) PortIdentifier {
	return InputPort(n.UID, key)
}

// PortOut returns the identifier of one of the node's outputs.
func (n *Node) PortOut(key string) PortIdentifier {
	return OutputPort(n.UID, key)
}

// IsSpecial reports whether the node type uses the reserved special prefix.
func (n *Node) IsSpecial() bool {
	return strings.HasPrefix(n.Type, SpecialPrefix)
}

// Connection is a wire from an output of one node to an input of another.
// Flow wires and data wires share this representation; they differ only by
// port keys (__flow_out__ to __flow_in__ for flow wires).
type Connection struct {
	// Type is the editor's connection kind. It is carried for compatibility
	// and is not interpreted by the compiler.
	Type    int    `json:"type" yaml:"type" mapstructure:"type"`
	From    string `json:"from" yaml:"from" mapstructure:"from"`
	FromKey string `json:"fromKey" yaml:"fromKey" mapstructure:"fromKey"`
	To      string `json:"to" yaml:"to" mapstructure:"to"`
	ToKey   string `json:"toKey" yaml:"toKey" mapstructure:"toKey"`
}

// Source returns the output the wire starts at.
func (c Connection) Source() PortIdentifier {
	return OutputPort(c.From, c.FromKey)
}

// Target returns the input the wire ends at.
func (c Connection) Target() PortIdentifier {
	return InputPort(c.To, c.ToKey)
}
