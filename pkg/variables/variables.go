// Package variables provides the mutable, scoped key/value store threaded
// through one workflow execution. It holds caller inputs, intermediate node
// outputs and final outputs. Values are appended or overwritten, never deleted
// mid-run; merges are serialized so concurrent node completions cannot
// interleave a partial merge.
package variables

import "sync"

// Context is the per-execution variable store. It is safe for concurrent use;
// same-named writes resolve last-writer-wins in completion order.
type Context struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewContext creates a context seeded with the caller-supplied input values.
func NewContext(initial map[string]any) *Context {
	values := make(map[string]any, len(initial))
	for k, v := range initial {
		values[k] = v
	}

	return &Context{values: values}
}

// Get returns the value for a variable name.
func (c *Context) Get(name string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.values[name]

	return v, ok
}

// Merge writes a node's outputs into the context, overwriting same-named
// prior values.
func (c *Context) Merge(outputs map[string]any) {
	if len(outputs) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for k, v := range outputs {
		c.values[k] = v
	}
}

// Snapshot returns a copy of the full variable map.
func (c *Context) Snapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot := make(map[string]any, len(c.values))
	for k, v := range c.values {
		snapshot[k] = v
	}

	return snapshot
}

// FilterTo returns a snapshot restricted to the given variable names. Names
// with no value yet are omitted. An empty name list returns the full snapshot,
// for handlers that declare no explicit inputs.
func (c *Context) FilterTo(names []string) map[string]any {
	if len(names) == 0 {
		return c.Snapshot()
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	filtered := make(map[string]any, len(names))

	for _, name := range names {
		if v, ok := c.values[name]; ok {
			filtered[name] = v
		}
	}

	return filtered
}

// Len returns the number of variables currently set.
func (c *Context) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.values)
}
