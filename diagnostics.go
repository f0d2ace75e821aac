package ioc

import (
	"fmt"
	"sort"
	"strings"
)

// Status is a diagnostic tool that returns a string describing the state of
// the container: every identifier that has a binding or a stored instance,
// one per line in sorted order, with what it is bound to and whether an
// instance is stored for it.
func (c *Container) Status() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	lines := map[string]string{}
	for id, concrete := range c.bindings {
		_, cached := c.instances.get(concrete)
		lines[id] = fmt.Sprintf("%s - bound to %s - instance: %t", id, concrete, cached)
	}
	for id, instance := range c.instances {
		if _, ok := lines[id]; ok {
			continue
		}
		lines[id] = fmt.Sprintf("%s - instance: %T", id, instance)
	}

	keys := make([]string, 0, len(lines))
	for k := range lines {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := strings.Builder{}
	for _, k := range keys {
		if result.Len() > 0 {
			result.WriteString("\n")
		}
		result.WriteString(lines[k])
	}
	return result.String()
}

// Bindings returns a copy of the binding table.
func (c *Container) Bindings() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.bindings))
	for id, concrete := range c.bindings {
		out[id] = concrete
	}
	return out
}

// Instances returns the identifiers with a stored instance, sorted.
func (c *Container) Instances() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.instances))
	for id := range c.instances {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
