package metadata

import "testing"

func TestBuiltinModulesCatalog(t *testing.T) {
	reg := NewRegistry()
	reg.LoadModules(BuiltinModules())

	for _, name := range []string{"properties", "categories", "cities", "agents", "enquiries", "users"} {
		if reg.GetModule(name) == nil {
			t.Errorf("expected builtin module %s", name)
		}
	}
	if reg.GetModule("nope") != nil {
		t.Error("unknown module should be nil")
	}
}

func TestPropertiesModuleShape(t *testing.T) {
	reg := NewRegistry()
	reg.LoadModules(BuiltinModules())
	m := reg.GetModule("properties")

	if !m.SoftDelete {
		t.Error("properties should soft delete")
	}
	if m.OwnerField != "created_by" {
		t.Errorf("expected owner field created_by, got %s", m.OwnerField)
	}
	if m.Slug == nil || m.Slug.Source != "title" {
		t.Error("properties slug should derive from title")
	}
	if m.IsWritable("created_at") || m.IsWritable("id") {
		t.Error("auto and key fields must not be writable")
	}
	if !m.IsWritable("price") {
		t.Error("price should be writable")
	}
}

func TestUsersModuleHidesSecrets(t *testing.T) {
	reg := NewRegistry()
	reg.LoadModules(BuiltinModules())
	m := reg.GetModule("users")

	if !m.Internal {
		t.Error("users must be internal")
	}
	for _, name := range m.PublicFieldNames() {
		switch name {
		case "password_hash", "permissions", "field_permissions":
			t.Errorf("secret field %s leaked into public names", name)
		}
	}
}

func TestModuleSchemasExcludeSystemFields(t *testing.T) {
	reg := NewRegistry()
	reg.LoadModules(BuiltinModules())

	for _, schema := range reg.ModuleSchemas() {
		for _, f := range schema.Fields {
			switch f {
			case "id", "created_at", "updated_at", "created_by", "password_hash":
				t.Errorf("module %s: field %s should not be editable", schema.Module, f)
			}
		}
	}
}

func TestGetRulesForModuleOrderingAndFilters(t *testing.T) {
	reg := NewRegistry()
	reg.LoadRules([]*Rule{
		{ID: "b", Module: "properties", Hook: "before_write", Active: true, Priority: 2},
		{ID: "a", Module: "properties", Hook: "before_write", Active: true, Priority: 1},
		{ID: "c", Module: "properties", Hook: "before_write", Active: false, Priority: 0},
		{ID: "d", Module: "properties", Hook: "after_write", Active: true, Priority: 0},
	})

	rules := reg.GetRulesForModule("properties", "before_write")
	if len(rules) != 2 {
		t.Fatalf("expected 2 active before_write rules, got %d", len(rules))
	}
	if rules[0].ID != "a" || rules[1].ID != "b" {
		t.Errorf("rules out of priority order: %s, %s", rules[0].ID, rules[1].ID)
	}
}
