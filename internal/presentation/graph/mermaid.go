package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/disbotter/disbotter/pkg/domain"
	"github.com/disbotter/disbotter/pkg/registry"
)

// Overlay marks compile results on the graph.
type Overlay struct {
	CompiledNodes []string
	FailedNode    string
}

// GenerateMermaid produces a Mermaid flowchart of a flow.
// Shapes:
// - Start: ((Circle))
// - Special: [[Subroutine]]
// - Pure (when templates are given): ([Stadium])
// - Default: [Rectangle]
// Flow wires are thick arrows; data wires are dotted and labeled with their ports.
func GenerateMermaid(flow *domain.Flow, templates *registry.Registry, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range flow.Nodes {
		opener, closer := "[", "]"
		switch {
		case node.Type == domain.StartNodeType:
			opener, closer = "((", "))"
		case node.IsSpecial():
			opener, closer = "[[", "]]"
		case templates != nil && isPure(templates, node.Type):
			opener, closer = "([", "])"
		}

		label := escapeLabel(node.Type)
		if hc := hardcodedSummary(node.InputHardcoded); hc != "" {
			label += "<br/>" + escapeLabel(hc)
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", mermaidID(node.UID), opener, label, closer)
	}

	for _, c := range flow.Connections {
		from, to := mermaidID(c.From), mermaidID(c.To)
		if c.FromKey == domain.PortFlowOut || c.ToKey == domain.PortFlowIn {
			if c.FromKey == domain.PortFlowOut {
				fmt.Fprintf(&sb, "    %s ==> %s\n", from, to)
			} else {
				fmt.Fprintf(&sb, "    %s == \"%s\" ==> %s\n", from, escapeLabel(c.FromKey), to)
			}
			continue
		}
		fmt.Fprintf(&sb, "    %s -. \"%s → %s\" .-> %s\n", from, escapeLabel(c.FromKey), escapeLabel(c.ToKey), to)
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef compiled fill:#e8f5e9,stroke:#2e7d32,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffebee,stroke:#c62828,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.CompiledNodes {
			safeID := mermaidID(id)
			if !seen[safeID] && id != "" {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s compiled;\n", safeID)
			}
		}
		if overlay.FailedNode != "" {
			fmt.Fprintf(&sb, "    class %s failed;\n", mermaidID(overlay.FailedNode))
		}
	}

	return sb.String()
}

func isPure(templates *registry.Registry, nodeType string) bool {
	t, ok := templates.Get(nodeType)
	return ok && t.Pure
}

func hardcodedSummary(values map[string]any) string {
	if len(values) == 0 {
		return ""
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, values[k]))
	}
	return strings.Join(parts, ", ")
}

// mermaidID prefixes ids so editor UIDs such as "end" cannot clash with keywords.
func mermaidID(id string) string {
	var sb strings.Builder
	sb.WriteString("n_")
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
