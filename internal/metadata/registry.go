package metadata

import (
	"sort"
	"sync"
)

// ModuleSchema is the shape handed to the field-permission editor:
// one module and its permissible field names. Secret and auto-managed
// fields are already excluded.
type ModuleSchema struct {
	Module string   `json:"module"`
	Fields []string `json:"fields"`
}

type Registry struct {
	mu      sync.RWMutex
	modules map[string]*Module
	rules   map[string][]*Rule // keyed by module name, sorted by priority
}

func NewRegistry() *Registry {
	return &Registry{
		modules: make(map[string]*Module),
		rules:   make(map[string][]*Rule),
	}
}

// GetModule returns the module with the given name, or nil.
func (r *Registry) GetModule(name string) *Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.modules[name]
}

// AllModules returns all registered modules sorted by name.
func (r *Registry) AllModules() []*Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	modules := make([]*Module, 0, len(r.modules))
	for _, m := range r.modules {
		modules = append(modules, m)
	}
	sort.Slice(modules, func(i, j int) bool { return modules[i].Name < modules[j].Name })
	return modules
}

// ModuleSchemas enumerates modules and their editable fields for the
// permission admin. System/audit/secret fields are left out.
func (r *Registry) ModuleSchemas() []ModuleSchema {
	var schemas []ModuleSchema
	for _, m := range r.AllModules() {
		var fields []string
		for _, f := range m.Fields {
			if f.Secret || f.IsAuto() || f.Name == m.PrimaryKey {
				continue
			}
			fields = append(fields, f.Name)
		}
		schemas = append(schemas, ModuleSchema{Module: m.Name, Fields: fields})
	}
	return schemas
}

// GetRulesForModule returns active rules for a module and hook, in priority order.
func (r *Registry) GetRulesForModule(module, hook string) []*Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Rule
	for _, rule := range r.rules[module] {
		if rule.Active && rule.Hook == hook {
			out = append(out, rule)
		}
	}
	return out
}

// LoadModules replaces all modules in the registry.
func (r *Registry) LoadModules(modules []*Module) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules = make(map[string]*Module, len(modules))
	for _, m := range modules {
		r.modules[m.Name] = m
	}
}

// LoadRules replaces all rules in the registry.
func (r *Registry) LoadRules(rules []*Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = make(map[string][]*Rule)
	for _, rule := range rules {
		r.rules[rule.Module] = append(r.rules[rule.Module], rule)
	}
	for _, list := range r.rules {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Priority < list[j].Priority })
	}
}
