package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeCompiled EventType = "node_compiled"
	EventUnitCompiled EventType = "unit_compiled"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Command   string    `json:"command"`
}

// NodeEvent reports that a node's action ran successfully.
type NodeEvent struct {
	EventBase
	NodeID   string `json:"node_id"`
	NodeType string `json:"node_type"`
	// Lazy is set when the node was compiled on demand as a data producer
	// instead of in flow order.
	Lazy bool `json:"lazy,omitempty"`
}

// UnitEvent reports the outcome of one compile unit.
type UnitEvent struct {
	EventBase
	Path     string        `json:"path,omitempty"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// CompileHooks defines callbacks for compiler observability.
// Hooks run synchronously on the compiling goroutine; units compiled in
// parallel may invoke them concurrently.
type CompileHooks struct {
	OnNodeCompiled func(context.Context, *NodeEvent)
	OnUnitDone     func(context.Context, *UnitEvent)
}

// ChainHooks combines several hook sets; each callback runs in argument order.
func ChainHooks(hooks ...CompileHooks) CompileHooks {
	var chained CompileHooks
	for _, h := range hooks {
		if h.OnNodeCompiled != nil {
			prev, next := chained.OnNodeCompiled, h.OnNodeCompiled
			chained.OnNodeCompiled = func(ctx context.Context, e *NodeEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				next(ctx, e)
			}
		}
		if h.OnUnitDone != nil {
			prev, next := chained.OnUnitDone, h.OnUnitDone
			chained.OnUnitDone = func(ctx context.Context, e *UnitEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				next(ctx, e)
			}
		}
	}
	return chained
}
