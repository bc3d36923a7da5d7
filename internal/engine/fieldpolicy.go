package engine

import "encoding/json"

// FieldGrants holds the per-action flags stored for one field.
type FieldGrants struct {
	Read   bool `json:"read"`
	Create bool `json:"create"`
	Update bool `json:"update"`
	Delete bool `json:"delete"`
}

// ModuleFieldPolicy is the field-level policy for one module. The all-flags
// are an override layer: when AllX is set, every field's X flag reads as
// true, but the individually stored flags are kept intact underneath so
// clearing the override reveals them again.
type ModuleFieldPolicy struct {
	AllRead   bool                   `json:"all_read"`
	AllCreate bool                   `json:"all_create"`
	AllUpdate bool                   `json:"all_update"`
	AllDelete bool                   `json:"all_delete"`
	Fields    map[string]FieldGrants `json:"fields,omitempty"`
}

// FieldPermissionDoc maps module name to its field-level policy.
type FieldPermissionDoc map[string]ModuleFieldPolicy

// NormalizeFieldDoc decodes a stored field-permission blob. Like
// NormalizeDoc it is total: garbage input yields the empty document.
func NormalizeFieldDoc(raw any) FieldPermissionDoc {
	doc := FieldPermissionDoc{}
	var data []byte
	switch r := raw.(type) {
	case nil:
		return doc
	case FieldPermissionDoc:
		return r
	case []byte:
		data = r
	case string:
		data = []byte(r)
	case map[string]any:
		b, err := json.Marshal(r)
		if err != nil {
			return doc
		}
		data = b
	default:
		return doc
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return FieldPermissionDoc{}
	}
	return doc
}

func (g FieldGrants) allowed(action string) bool {
	switch action {
	case ActionRead:
		return g.Read
	case ActionCreate:
		return g.Create
	case ActionUpdate:
		return g.Update
	case ActionDelete:
		return g.Delete
	}
	return false
}

func (g *FieldGrants) set(action string, v bool) {
	switch action {
	case ActionRead:
		g.Read = v
	case ActionCreate:
		g.Create = v
	case ActionUpdate:
		g.Update = v
	case ActionDelete:
		g.Delete = v
	}
}

func (p ModuleFieldPolicy) allFlag(action string) bool {
	switch action {
	case ActionRead:
		return p.AllRead
	case ActionCreate:
		return p.AllCreate
	case ActionUpdate:
		return p.AllUpdate
	case ActionDelete:
		return p.AllDelete
	}
	return false
}

// FieldAllowed decides per-action visibility/editability of one field.
// The module's all-flag dominates; otherwise the stored per-field flag
// applies. Absent module or field means false.
func FieldAllowed(doc FieldPermissionDoc, module, field, action string) bool {
	policy, ok := doc[module]
	if !ok {
		return false
	}
	if policy.allFlag(action) {
		return true
	}
	return policy.Fields[field].allowed(action)
}

// SetFieldPermission updates one field's flag for one action. The module's
// all-flags are never touched.
func SetFieldPermission(doc FieldPermissionDoc, module, field, action string, value bool) FieldPermissionDoc {
	if doc == nil {
		doc = FieldPermissionDoc{}
	}
	policy := doc[module]
	if policy.Fields == nil {
		policy.Fields = make(map[string]FieldGrants)
	}
	grants := policy.Fields[field]
	grants.set(action, value)
	policy.Fields[field] = grants
	doc[module] = policy
	return doc
}

// SetAllFieldsPermission toggles the module's all-flag for one action.
// Individual field flags are preserved unchanged underneath the override.
func SetAllFieldsPermission(doc FieldPermissionDoc, module, action string, value bool) FieldPermissionDoc {
	if doc == nil {
		doc = FieldPermissionDoc{}
	}
	policy := doc[module]
	switch action {
	case ActionRead:
		policy.AllRead = value
	case ActionCreate:
		policy.AllCreate = value
	case ActionUpdate:
		policy.AllUpdate = value
	case ActionDelete:
		policy.AllDelete = value
	}
	doc[module] = policy
	return doc
}

// HasModulePolicy reports whether a field policy was configured for the
// module at all. The CRUD data path only projects rows through the policy
// when one exists; FieldAllowed keeps its closed-world default for the
// permission editor.
func HasModulePolicy(doc FieldPermissionDoc, module string) bool {
	_, ok := doc[module]
	return ok
}

// ReadableFields projects a row through the field policy for a module,
// keeping only fields readable under the policy. The primary key survives
// so clients can still address the record.
func ReadableFields(doc FieldPermissionDoc, module, primaryKey string, row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for name, v := range row {
		if name == primaryKey || FieldAllowed(doc, module, name, ActionRead) {
			out[name] = v
		}
	}
	return out
}

// WritableFields drops fields the policy forbids for the given write
// action (create or update).
func WritableFields(doc FieldPermissionDoc, module, action string, fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for name, v := range fields {
		if FieldAllowed(doc, module, name, action) {
			out[name] = v
		}
	}
	return out
}
