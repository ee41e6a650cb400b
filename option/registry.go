package option

// Registry holds the options an engine declared, in declaration order.
// It is owned by a single session and is not safe for concurrent use.
type Registry struct {
	opts []*Option
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry { return &Registry{} }

// Add declares o.  A later declaration with the same name replaces the
// earlier one in place.  The current value starts at the default.
func (r *Registry) Add(o *Option) {
	if o.Value == "" {
		o.Value = o.Default
	}
	for i, cur := range r.opts {
		if cur.Name == o.Name {
			r.opts[i] = o
			return
		}
	}
	r.opts = append(r.opts, o)
}

// Lookup finds an option by its name or its alias.
func (r *Registry) Lookup(name string) *Option {
	for _, o := range r.opts {
		if o.Name == name || (o.Alias != "" && o.Alias == name) {
			return o
		}
	}
	return nil
}

// All returns copies of the declared options in declaration order.
func (r *Registry) All() []Option {
	out := make([]Option, len(r.opts))
	for i, o := range r.opts {
		out[i] = *o
		out[i].Choices = append([]string(nil), o.Choices...)
	}
	return out
}

// Len returns the number of declared options.
func (r *Registry) Len() int { return len(r.opts) }

// Clear drops every option.
func (r *Registry) Clear() { r.opts = nil }
