package middleware

import (
	"context"
	"strings"

	"github.com/disbotter/disbotter/pkg/domain"
	"github.com/disbotter/disbotter/pkg/ports"
)

type namespaceMiddleware struct {
	next   ports.ProgramStore
	prefix string
}

// NewNamespaceMiddleware scopes every key under namespace. List only reports
// keys of the namespace, without the prefix.
//
// The compile service namespaces its cache with the node catalog fingerprint
// so programs compiled against other node scripts are never served.
func NewNamespaceMiddleware(namespace string) Middleware {
	return func(next ports.ProgramStore) ports.ProgramStore {
		if namespace == "" {
			return next
		}
		return &namespaceMiddleware{next: next, prefix: namespace + "."}
	}
}

func (m *namespaceMiddleware) Save(ctx context.Context, key string, program *domain.Program) error {
	return m.next.Save(ctx, m.prefix+key, program)
}

func (m *namespaceMiddleware) Load(ctx context.Context, key string) (*domain.Program, error) {
	return m.next.Load(ctx, m.prefix+key)
}

func (m *namespaceMiddleware) Delete(ctx context.Context, key string) error {
	return m.next.Delete(ctx, m.prefix+key)
}

func (m *namespaceMiddleware) List(ctx context.Context) ([]string, error) {
	keys, err := m.next.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if rest, ok := strings.CutPrefix(k, m.prefix); ok {
			out = append(out, rest)
		}
	}
	return out, nil
}
