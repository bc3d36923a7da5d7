package engine

import (
	"encoding/json"
	"sort"
	"strings"
)

// Canonical action vocabulary. ActionAll is a super-grant: it implies every
// other action on the module and unrestricted record scope.
const (
	ActionRead   = "read"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionAll    = "all"
)

// ActionSet is the set of actions granted on one module.
type ActionSet map[string]bool

// PermissionDoc is the canonical permission document: module name to
// granted actions. A module key is present only when its set is non-empty.
type PermissionDoc map[string]ActionSet

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed    bool `json:"allowed"`
	CanViewAll bool `json:"can_view_all"`
}

func isKnownAction(tok string) bool {
	switch tok {
	case ActionRead, ActionCreate, ActionUpdate, ActionDelete, ActionAll:
		return true
	}
	return false
}

// NormalizeDoc converts a stored permission blob into the canonical
// document. The store may hold either descriptor shape per module: a
// pipe-delimited action string ("read|create") or an array of action
// tokens. Raw may be a JSON byte slice, a JSON string, or an already
// decoded map. Anything unparseable yields the empty document; this
// function never fails and never grants implicitly.
func NormalizeDoc(raw any) PermissionDoc {
	doc := PermissionDoc{}
	m := decodeMap(raw)
	for module, v := range m {
		set := normalizeDescriptor(v)
		if len(set) > 0 {
			doc[module] = set
		}
	}
	return doc
}

func decodeMap(raw any) map[string]any {
	switch r := raw.(type) {
	case nil:
		return nil
	case map[string]any:
		return r
	case PermissionDoc:
		m := make(map[string]any, len(r))
		for k, v := range r {
			m[k] = v
		}
		return m
	case []byte:
		var m map[string]any
		if err := json.Unmarshal(r, &m); err != nil {
			return nil
		}
		return m
	case string:
		var m map[string]any
		if err := json.Unmarshal([]byte(r), &m); err != nil {
			return nil
		}
		return m
	default:
		return nil
	}
}

func normalizeDescriptor(v any) ActionSet {
	set := ActionSet{}
	addToken := func(tok string) {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok != "" && isKnownAction(tok) {
			set[tok] = true
		}
	}

	switch d := v.(type) {
	case string:
		// Legacy shape: "read|create|update"
		for _, tok := range strings.Split(d, "|") {
			addToken(tok)
		}
	case []string:
		for _, tok := range d {
			addToken(tok)
		}
	case []any:
		for _, item := range d {
			if s, ok := item.(string); ok {
				addToken(s)
			}
		}
	case ActionSet:
		for tok, on := range d {
			if on {
				addToken(tok)
			}
		}
	}
	return set
}

// Authorize decides whether the canonical document permits the action on
// the module. Absent module means deny. The all-grant permits every action
// and additionally lifts the "own records only" restriction, regardless of
// which action was asked.
func Authorize(doc PermissionDoc, module, action string) Decision {
	grants, ok := doc[module]
	if !ok {
		return Decision{}
	}
	return Decision{
		Allowed:    grants[action] || grants[ActionAll],
		CanViewAll: grants[ActionAll],
	}
}

// GrantedActions returns the caller's grants for a module, sorted, for
// inclusion in denial responses. Nil when the module is absent.
func GrantedActions(doc PermissionDoc, module string) []string {
	grants, ok := doc[module]
	if !ok {
		return nil
	}
	actions := make([]string, 0, len(grants))
	for a := range grants {
		actions = append(actions, a)
	}
	sort.Strings(actions)
	return actions
}

// MarshalJSON renders an ActionSet as a sorted token array so the wire
// form is stable.
func (s ActionSet) MarshalJSON() ([]byte, error) {
	actions := make([]string, 0, len(s))
	for a, on := range s {
		if on {
			actions = append(actions, a)
		}
	}
	sort.Strings(actions)
	return json.Marshal(actions)
}
