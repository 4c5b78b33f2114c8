package model

// Context is the single shared mutable scope for one publish run. It holds a
// free-form data bag (comment, label, frame range, ...) and the live instance
// set. The orchestrator owns it exclusively for the run's duration; report
// and error components only read from it.
type Context struct {
	Data      map[string]any
	instances []*Instance
}

// NewContext creates an empty publish context.
func NewContext() *Context {
	return &Context{Data: map[string]any{}}
}

// AddInstance attaches an instance to the run. Plugins acting as collectors
// may call this mid-run; iteration order is attachment order.
func (c *Context) AddInstance(instance *Instance) {
	if c == nil || instance == nil {
		return
	}
	c.instances = append(c.instances, instance)
}

// Instances returns the attached instances in attachment order.
func (c *Context) Instances() []*Instance {
	if c == nil {
		return nil
	}
	out := make([]*Instance, len(c.instances))
	copy(out, c.instances)
	return out
}

// Label returns the context label shown in reports.
func (c *Context) Label() string {
	if c != nil {
		if label, ok := c.Data["label"].(string); ok && label != "" {
			return label
		}
		if name, ok := c.Data["name"].(string); ok && name != "" {
			return name
		}
	}
	return "Context"
}
