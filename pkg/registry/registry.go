package registry

import (
	"sort"
	"sync"

	"github.com/disbotter/disbotter/pkg/builder"
)

// Action emits the code of one node instance through b.
// b has the node set as its current node and its inputs already bound.
type Action func(b *builder.Builder) error

// Template describes a node type: its editor metadata and the action that
// generates code for it.
type Template struct {
	Type        string
	Title       string
	Description string
	Category    string

	// Pure templates have no side effects and are inlined lazily wherever
	// one of their outputs is consumed.
	Pure      bool
	NoFlowIn  bool
	NoFlowOut bool

	Inputs  []Port
	Outputs []Port

	// Source is where the template was loaded from, if anywhere.
	Source string
	// Digest identifies the template's implementation, such as a hash of
	// its script. Templates defined in Go should set it to something that
	// changes with their action, or the generator fingerprint misses edits.
	Digest string

	Action Action
}

// Registry manages the available node templates.
// It is safe for concurrent use; compilers only read from it.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		templates: make(map[string]Template),
	}
}

// Register adds a template to the registry.
// If a template with the same type exists, it is overwritten.
func (r *Registry) Register(t Template) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[t.Type] = t
}

// RegisterFunc is a shorthand for registering a template with only an action.
func (r *Registry) RegisterFunc(nodeType string, pure bool, action Action) {
	r.Register(Template{Type: nodeType, Pure: pure, Action: action})
}

// Get looks up a template by node type.
func (r *Registry) Get(nodeType string) (Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[nodeType]
	return t, ok
}

// Has reports whether nodeType is registered.
func (r *Registry) Has(nodeType string) bool {
	_, ok := r.Get(nodeType)
	return ok
}

// Len returns the number of registered templates.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.templates)
}

// Types returns the registered node types, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.templates))
	for t := range r.templates {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Templates returns every template ordered by category, then type.
func (r *Registry) Templates() []Template {
	r.mu.RLock()
	out := make([]Template, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, t)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// Merge copies every template of other into r, overwriting duplicates.
func (r *Registry) Merge(other *Registry) {
	for _, t := range other.Templates() {
		r.Register(t)
	}
}
