package domain

// Flow is the node graph of a single compile unit.
type Flow struct {
	Nodes       []Node       `json:"nodes" yaml:"nodes" mapstructure:"nodes"`
	Connections []Connection `json:"connections" yaml:"connections" mapstructure:"connections"`
}

// Node returns the node with the given uid.
func (f *Flow) Node(uid string) (*Node, bool) {
	for i := range f.Nodes {
		if f.Nodes[i].UID == uid {
			return &f.Nodes[i], true
		}
	}
	return nil, false
}

// NodeOfType returns the first node whose type equals nodeType.
func (f *Flow) NodeOfType(nodeType string) (*Node, bool) {
	for i := range f.Nodes {
		if f.Nodes[i].Type == nodeType {
			return &f.Nodes[i], true
		}
	}
	return nil, false
}

// Incoming returns the wires terminating at the given node, in declaration order.
func (f *Flow) Incoming(uid string) []Connection {
	var conns []Connection
	for _, c := range f.Connections {
		if c.To == uid {
			conns = append(conns, c)
		}
	}
	return conns
}

// Target returns the port on the other end of the first wire attached to port.
// For an Input it returns the feeding Output; for an Output it returns the
// Input it is wired to. Globals and compile-time ports never have targets.
func (f *Flow) Target(port PortIdentifier) (PortIdentifier, bool) {
	switch port.Kind {
	case PortInput:
		for _, c := range f.Connections {
			if c.To == port.NodeID && c.ToKey == port.PortKey {
				return c.Source(), true
			}
		}
	case PortOutput:
		for _, c := range f.Connections {
			if c.From == port.NodeID && c.FromKey == port.PortKey {
				return c.Target(), true
			}
		}
	}
	return PortIdentifier{}, false
}
