package engine

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestNormalizeDocPipeString(t *testing.T) {
	doc := NormalizeDoc(map[string]any{"properties": "read|create|update"})
	set, ok := doc["properties"]
	if !ok {
		t.Fatal("expected properties module in document")
	}
	if !set[ActionRead] || !set[ActionCreate] || !set[ActionUpdate] {
		t.Errorf("expected read/create/update granted, got %v", set)
	}
	if set[ActionDelete] {
		t.Error("delete should not be granted")
	}
}

func TestNormalizeDocTokenArray(t *testing.T) {
	doc := NormalizeDoc(map[string]any{"agents": []any{"read", "delete"}})
	set := doc["agents"]
	if !set[ActionRead] || !set[ActionDelete] {
		t.Errorf("expected read/delete granted, got %v", set)
	}
}

func TestNormalizeDocEquivalentShapes(t *testing.T) {
	fromString := NormalizeDoc(map[string]any{"cities": "read|update"})
	fromArray := NormalizeDoc(map[string]any{"cities": []any{"read", "update"}})
	if !reflect.DeepEqual(fromString, fromArray) {
		t.Errorf("shapes should normalize identically: %v vs %v", fromString, fromArray)
	}
}

func TestNormalizeDocJSONBytes(t *testing.T) {
	raw := []byte(`{"properties": ["read"], "users": "all"}`)
	doc := NormalizeDoc(raw)
	if !doc["properties"][ActionRead] {
		t.Error("expected read on properties")
	}
	if !doc["users"][ActionAll] {
		t.Error("expected all on users")
	}
}

func TestNormalizeDocCaseAndWhitespace(t *testing.T) {
	doc := NormalizeDoc(map[string]any{"properties": " Read | CREATE |  "})
	set := doc["properties"]
	if !set[ActionRead] || !set[ActionCreate] {
		t.Errorf("tokens should be trimmed and lowercased, got %v", set)
	}
	if len(set) != 2 {
		t.Errorf("empty tokens must be discarded, got %v", set)
	}
}

func TestNormalizeDocUnknownTokensDropped(t *testing.T) {
	doc := NormalizeDoc(map[string]any{"properties": "read|fly|admin"})
	set := doc["properties"]
	if len(set) != 1 || !set[ActionRead] {
		t.Errorf("unknown tokens must be dropped, got %v", set)
	}
}

func TestNormalizeDocEmptyDescriptorOmitted(t *testing.T) {
	doc := NormalizeDoc(map[string]any{"properties": "", "cities": []any{}})
	if len(doc) != 0 {
		t.Errorf("modules with no grants must not appear, got %v", doc)
	}
}

func TestNormalizeDocGarbageNeverFails(t *testing.T) {
	for _, raw := range []any{nil, "not json", []byte("{broken"), 42, []any{"read"}} {
		doc := NormalizeDoc(raw)
		if len(doc) != 0 {
			t.Errorf("garbage %v should yield empty document, got %v", raw, doc)
		}
	}
}

func TestNormalizeDocIdempotent(t *testing.T) {
	first := NormalizeDoc(map[string]any{"properties": "read|create", "users": []any{"all"}})
	second := NormalizeDoc(first)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("normalizing a canonical document must be a no-op: %v vs %v", first, second)
	}
}

func TestAuthorizeAbsentModuleDenies(t *testing.T) {
	doc := NormalizeDoc(map[string]any{"properties": "read"})
	d := Authorize(doc, "agents", ActionRead)
	if d.Allowed {
		t.Error("absent module must deny")
	}
	if d.CanViewAll {
		t.Error("denied decision must not widen record scope")
	}
}

func TestAuthorizePlainGrant(t *testing.T) {
	doc := NormalizeDoc(map[string]any{"properties": "read|update"})
	d := Authorize(doc, "properties", ActionUpdate)
	if !d.Allowed {
		t.Error("update should be allowed")
	}
	if d.CanViewAll {
		t.Error("plain grants do not widen record scope")
	}
	if Authorize(doc, "properties", ActionDelete).Allowed {
		t.Error("ungranted action must deny")
	}
}

func TestAuthorizeAllGrant(t *testing.T) {
	doc := NormalizeDoc(map[string]any{"properties": "all"})
	for _, action := range []string{ActionRead, ActionCreate, ActionUpdate, ActionDelete} {
		d := Authorize(doc, "properties", action)
		if !d.Allowed {
			t.Errorf("all should permit %s", action)
		}
		if !d.CanViewAll {
			t.Errorf("all should grant full record scope for %s", action)
		}
	}
}

func TestAuthorizeAllAlongsideExplicit(t *testing.T) {
	doc := NormalizeDoc(map[string]any{"properties": "read|all"})
	d := Authorize(doc, "properties", ActionDelete)
	if !d.Allowed || !d.CanViewAll {
		t.Errorf("all must dominate regardless of other tokens, got %+v", d)
	}
}

func TestGrantedActionsSorted(t *testing.T) {
	doc := NormalizeDoc(map[string]any{"properties": "update|read|create"})
	got := GrantedActions(doc, "properties")
	want := []string{"create", "read", "update"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if GrantedActions(doc, "agents") != nil {
		t.Error("absent module should yield nil")
	}
}

func TestActionSetMarshalStable(t *testing.T) {
	doc := NormalizeDoc(map[string]any{"properties": "delete|read|create"})
	data, err := json.Marshal(doc["properties"])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `["create","delete","read"]` {
		t.Errorf("expected sorted array, got %s", data)
	}
}
