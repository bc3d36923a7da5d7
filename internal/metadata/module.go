package metadata

type SlugConfig struct {
	Field  string `json:"field"`            // slug field name (must exist in fields, must be unique)
	Source string `json:"source,omitempty"` // auto-generate from this field
}

// Module is a named resource category subject to access control.
// The set of modules is fixed per deployment; see builtin.go.
type Module struct {
	Name       string      `json:"name"`
	Table      string      `json:"table"`
	PrimaryKey string      `json:"primary_key"`
	OwnerField string      `json:"owner_field,omitempty"` // records are scoped to this field when the caller lacks the all-grant
	SoftDelete bool        `json:"soft_delete"`
	Internal   bool        `json:"internal,omitempty"` // not served by the generic CRUD routes
	Slug       *SlugConfig `json:"slug,omitempty"`
	Fields     []Field     `json:"fields"`
}

type Field struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required,omitempty"`
	Secret   bool   `json:"secret,omitempty"` // never enumerated or returned to clients
	Auto     string `json:"auto,omitempty"`   // "create" or "update"
}

// IsAuto returns true if the field is managed by the engine, not the client.
func (f Field) IsAuto() bool {
	return f.Auto == "create" || f.Auto == "update"
}

// GetField returns a pointer to the field with the given name, or nil.
func (m *Module) GetField(name string) *Field {
	for i := range m.Fields {
		if m.Fields[i].Name == name {
			return &m.Fields[i]
		}
	}
	return nil
}

// HasField returns true if the module has a field with the given name.
func (m *Module) HasField(name string) bool {
	return m.GetField(name) != nil
}

// FieldNames returns all field names, secret fields included.
func (m *Module) FieldNames() []string {
	names := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		names[i] = f.Name
	}
	return names
}

// PublicFieldNames returns the field names visible outside the server:
// secret fields are excluded.
func (m *Module) PublicFieldNames() []string {
	var names []string
	for _, f := range m.Fields {
		if f.Secret {
			continue
		}
		names = append(names, f.Name)
	}
	return names
}

// WritableFields returns fields a client may set through the CRUD routes.
// Excludes the primary key, secret fields, and auto-managed fields.
func (m *Module) WritableFields() []Field {
	var fields []Field
	for _, f := range m.Fields {
		if f.Name == m.PrimaryKey {
			continue
		}
		if f.Secret || f.IsAuto() {
			continue
		}
		fields = append(fields, f)
	}
	return fields
}

// IsWritable reports whether the named field may be set by a client.
func (m *Module) IsWritable(name string) bool {
	for _, f := range m.WritableFields() {
		if f.Name == name {
			return true
		}
	}
	return false
}
