package taxonomy

import "regexp"

// FieldSpec defines one extractable disclosure field: its key in the stable
// field-name vocabulary, whether its absence lowers the compliance score,
// the pattern set applied to raw text, and an optional normalizer applied to
// each raw match. Specs are immutable after registry construction.
type FieldSpec struct {
	Key       string
	Display   string
	Required  bool
	Patterns  []*regexp.Regexp
	Normalize func(string) string
}

// Registry is the indexed field taxonomy. Every other component references
// the registry; none redefines the schema.
type Registry struct {
	Fields   []FieldSpec
	byKey    map[string]*FieldSpec
	required []*FieldSpec
	optional []*FieldSpec
}

// New creates a Registry with indexed lookups over the given specs.
func New(fields []FieldSpec) *Registry {
	r := &Registry{
		Fields: fields,
		byKey:  make(map[string]*FieldSpec, len(fields)),
	}
	for i := range r.Fields {
		f := &r.Fields[i]
		r.byKey[f.Key] = f
		if f.Required {
			r.required = append(r.required, f)
		} else {
			r.optional = append(r.optional, f)
		}
	}
	return r
}

// ByKey returns the field definition for key, or nil if the key is not in the taxonomy.
func (r *Registry) ByKey(key string) *FieldSpec {
	return r.byKey[key]
}

// Required returns the required field specs in declaration order.
func (r *Registry) Required() []*FieldSpec {
	return r.required
}

// Optional returns the optional field specs in declaration order.
func (r *Registry) Optional() []*FieldSpec {
	return r.optional
}

// RequiredKeys returns the required field keys in declaration order.
func (r *Registry) RequiredKeys() []string {
	keys := make([]string, len(r.required))
	for i, f := range r.required {
		keys[i] = f.Key
	}
	return keys
}

// OptionalKeys returns the optional field keys in declaration order.
func (r *Registry) OptionalKeys() []string {
	keys := make([]string, len(r.optional))
	for i, f := range r.optional {
		keys[i] = f.Key
	}
	return keys
}

// Display returns the human-readable name for key, falling back to the key
// itself for unknown fields.
func (r *Registry) Display(key string) string {
	if f := r.byKey[key]; f != nil {
		return f.Display
	}
	return key
}
