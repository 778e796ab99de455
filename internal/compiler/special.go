package compiler

import (
	"fmt"
	"strings"

	"github.com/disbotter/disbotter/pkg/builder"
	"github.com/disbotter/disbotter/pkg/domain"
)

// compileSpecial compiles node types that have no template because their
// code depends on the command being compiled. It reports false when the
// node type is not a known special node.
func (c *Compiler) compileSpecial(b *builder.Builder, node *domain.Node) (bool, error) {
	if !node.IsSpecial() {
		return false, nil
	}

	switch {
	case strings.HasPrefix(node.Type, domain.SpecialGetOptionPrefix):
		name := strings.TrimPrefix(node.Type, domain.SpecialGetOptionPrefix)
		name = strings.TrimSuffix(name, domain.SpecialSuffix)
		return true, c.compileGetOption(b.ForNode(node), node, name)
	default:
		return false, nil
	}
}

// compileGetOption emits the extraction of a command option from the
// interaction and binds it to the node's value output.
func (c *Compiler) compileGetOption(b *builder.Builder, node *domain.Node, name string) error {
	interaction, ok := b.Cache().Get(domain.GlobalPort(domain.GlobalInteraction))
	if !ok {
		return domain.NewCompileError(domain.ErrBadContext, "cannot get option %q outside of an interaction", name).
			WithNode(node.UID, node.Type)
	}
	if c.command == nil {
		return domain.NewCompileError(domain.ErrBadContext, "cannot get option %q outside of a command", name).
			WithNode(node.UID, node.Type)
	}

	opt, ok := c.command.Option(name)
	if !ok {
		return domain.NewCompileError(domain.ErrBadContext, "cannot get option %q because it does not exist", name).
			WithNode(node.UID, node.Type)
	}
	kind, err := opt.Kind.Name()
	if err != nil {
		return domain.NewCompileError(domain.ErrBadContext, "option %q: %v", name, err).
			WithNode(node.UID, node.Type)
	}

	v := "__get_option_" + builder.Sanitize(name)
	b.AddLine(fmt.Sprintf("let %s = %s.options.get%s(%s);", v, interaction, kind, Quote(name)))
	b.Cache().Set(node.PortOut(domain.SpecialValuePort), v)
	return nil
}
