package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/disbotter/disbotter/pkg/registry"
)

// NewRenderer returns a function that renders markdown using glamour.
// When the terminal style cannot be created, markdown is returned as is.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// CatalogMarkdown lists templates as markdown, one table per category.
func CatalogMarkdown(templates []registry.Template) string {
	var sb strings.Builder
	sb.WriteString("# Node catalog\n")

	category := "\x00"
	for _, t := range templates {
		if t.Category != category {
			category = t.Category
			name := category
			if name == "" {
				name = "Uncategorized"
			}
			fmt.Fprintf(&sb, "\n## %s\n\n", name)
			sb.WriteString("| Type | Title | Inputs | Outputs | Pure |\n")
			sb.WriteString("|------|-------|--------|---------|------|\n")
		}
		pure := ""
		if t.Pure {
			pure = "yes"
		}
		fmt.Fprintf(&sb, "| `%s` | %s | %s | %s | %s |\n",
			t.Type, cell(t.Title), portKeys(t.Inputs), portKeys(t.Outputs), pure)
	}
	if len(templates) == 0 {
		sb.WriteString("\n_No templates loaded._\n")
	}
	return sb.String()
}

func portKeys(ports []registry.Port) string {
	keys := make([]string, 0, len(ports))
	for _, p := range ports {
		keys = append(keys, fmt.Sprintf("%s (%s)", p.Key, p.Type))
	}
	return cell(strings.Join(keys, ", "))
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
