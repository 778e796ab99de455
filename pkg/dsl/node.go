package dsl

import "github.com/disbotter/disbotter/pkg/domain"

// StartUID is the uid given to the start node.
const StartUID = "start"

// CommandBuilder provides a fluent API for configuring a command and its flow.
type CommandBuilder struct {
	cmd   domain.Command
	nodes map[string]*NodeBuilder
}

// Describe sets the command description.
func (c *CommandBuilder) Describe(description string) *CommandBuilder {
	c.cmd.Description = description
	return c
}

// Option declares a command option.
func (c *CommandBuilder) Option(name string, kind domain.OptionKind, description string, required bool, choices ...string) *CommandBuilder {
	c.cmd.Options = append(c.cmd.Options, domain.CommandOption{
		Name:        name,
		Description: description,
		Kind:        kind,
		Required:    required,
		Choices:     choices,
	})
	return c
}

// Start returns the start node of the flow.
func (c *CommandBuilder) Start() *NodeBuilder {
	return c.Node(StartUID, domain.StartNodeType)
}

// Node places a node of nodeType under uid. If the uid is taken, the
// existing node is returned.
func (c *CommandBuilder) Node(uid, nodeType string) *NodeBuilder {
	if nb, ok := c.nodes[uid]; ok {
		return nb
	}
	c.cmd.Flow.Nodes = append(c.cmd.Flow.Nodes, domain.Node{UID: uid, Type: nodeType})
	nb := &NodeBuilder{cmd: c, index: len(c.cmd.Flow.Nodes) - 1}
	c.nodes[uid] = nb
	return nb
}

// GetOption places the special node reading the option called name.
func (c *CommandBuilder) GetOption(name string) *NodeBuilder {
	return c.Node("option_"+name, domain.SpecialGetOptionPrefix+name+domain.SpecialSuffix)
}

// Build returns a copy of the command.
func (c *CommandBuilder) Build() domain.Command {
	out := c.cmd
	out.Options = append([]domain.CommandOption(nil), c.cmd.Options...)
	out.Flow.Nodes = make([]domain.Node, len(c.cmd.Flow.Nodes))
	for i, n := range c.cmd.Flow.Nodes {
		out.Flow.Nodes[i] = n
		if n.InputHardcoded != nil {
			out.Flow.Nodes[i].InputHardcoded = make(map[string]any, len(n.InputHardcoded))
			for k, v := range n.InputHardcoded {
				out.Flow.Nodes[i].InputHardcoded[k] = v
			}
		}
	}
	out.Flow.Connections = append([]domain.Connection(nil), c.cmd.Flow.Connections...)
	return out
}

func (c *CommandBuilder) connect(from, fromKey, to, toKey string) {
	c.cmd.Flow.Connections = append(c.cmd.Flow.Connections, domain.Connection{
		From:    from,
		FromKey: fromKey,
		To:      to,
		ToKey:   toKey,
	})
}

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	cmd   *CommandBuilder
	index int
}

func (n *NodeBuilder) node() *domain.Node {
	return &n.cmd.cmd.Flow.Nodes[n.index]
}

// UID returns the node's uid.
func (n *NodeBuilder) UID() string {
	return n.node().UID
}

// Set hardcodes the value of an unwired input.
func (n *NodeBuilder) Set(input string, value any) *NodeBuilder {
	node := n.node()
	if node.InputHardcoded == nil {
		node.InputHardcoded = make(map[string]any)
	}
	node.InputHardcoded[input] = value
	return n
}

// Then wires the main flow output to next and returns next, so flows read
// in order: start.Then(a).Then(b).
func (n *NodeBuilder) Then(next *NodeBuilder) *NodeBuilder {
	return n.ThenOn(domain.PortFlowOut, next)
}

// ThenOn wires the named flow output to next and returns next.
func (n *NodeBuilder) ThenOn(output string, next *NodeBuilder) *NodeBuilder {
	n.cmd.connect(n.UID(), output, next.UID(), domain.PortFlowIn)
	return next
}

// Wire connects the data output of n to an input of to and returns n.
func (n *NodeBuilder) Wire(output string, to *NodeBuilder, input string) *NodeBuilder {
	n.cmd.connect(n.UID(), output, to.UID(), input)
	return n
}
