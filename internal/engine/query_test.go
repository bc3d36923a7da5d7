package engine

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"estate-backend/internal/metadata"
)

func testModule() *metadata.Module {
	return &metadata.Module{
		Name:       "properties",
		Table:      "properties",
		PrimaryKey: "id",
		SoftDelete: true,
		Fields: []metadata.Field{
			{Name: "id", Type: "uuid"},
			{Name: "title", Type: "string", Required: true},
			{Name: "price", Type: "decimal"},
			{Name: "active", Type: "boolean"},
			{Name: "secret_notes", Type: "string", Secret: true},
			{Name: "created_at", Type: "timestamp", Auto: "create"},
			{Name: "deleted_at", Type: "timestamp", Auto: "update"},
		},
	}
}

func parsePlan(t *testing.T, target string) (*QueryPlan, error) {
	t.Helper()
	app := fiber.New()
	var plan *QueryPlan
	var parseErr error
	app.Get("/q", func(c *fiber.Ctx) error {
		plan, parseErr = ParseQueryParams(c, testModule())
		return nil
	})
	resp, err := app.Test(httptest.NewRequest("GET", target, nil))
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	resp.Body.Close()
	return plan, parseErr
}

func TestParseQueryParamsDefaults(t *testing.T) {
	plan, err := parsePlan(t, "/q")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if plan.Page != 1 || plan.PerPage != 25 {
		t.Errorf("expected defaults page=1 per_page=25, got %d/%d", plan.Page, plan.PerPage)
	}
}

func TestParseQueryParamsFilterAndSort(t *testing.T) {
	plan, err := parsePlan(t, "/q?filter[price.gte]=100&sort=-created_at")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(plan.Filters) != 1 {
		t.Fatalf("expected 1 filter, got %d", len(plan.Filters))
	}
	f := plan.Filters[0]
	if f.Field != "price" || f.Operator != "gte" || f.Value != 100.0 {
		t.Errorf("unexpected filter %+v", f)
	}
	if len(plan.Sorts) != 1 || plan.Sorts[0].Field != "created_at" || plan.Sorts[0].Dir != "DESC" {
		t.Errorf("unexpected sorts %+v", plan.Sorts)
	}
}

func TestParseQueryParamsPerPageCap(t *testing.T) {
	plan, err := parsePlan(t, "/q?per_page=5000")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if plan.PerPage != 100 {
		t.Errorf("per_page should be capped at 100, got %d", plan.PerPage)
	}
}

func TestParseQueryParamsRejectsSecretField(t *testing.T) {
	if _, err := parsePlan(t, "/q?filter[secret_notes]=x"); err == nil {
		t.Error("filtering on a secret field must fail")
	}
	if _, err := parsePlan(t, "/q?sort=secret_notes"); err == nil {
		t.Error("sorting on a secret field must fail")
	}
}

func TestParseQueryParamsUnknownField(t *testing.T) {
	_, err := parsePlan(t, "/q?filter[nope]=1")
	if err == nil {
		t.Fatal("expected unknown field error")
	}
	appErr, ok := err.(*AppError)
	if !ok || appErr.Status != 400 {
		t.Errorf("expected 400 AppError, got %v", err)
	}
}

func TestBuildSelectSQLSoftDelete(t *testing.T) {
	plan := &QueryPlan{Module: testModule(), Page: 1, PerPage: 25}
	res := BuildSelectSQL(plan)
	if !strings.Contains(res.SQL, "deleted_at IS NULL") {
		t.Errorf("soft-deleted rows should be filtered: %s", res.SQL)
	}
	if strings.Contains(res.SQL, "secret_notes") {
		t.Errorf("secret fields must not be selected: %s", res.SQL)
	}
	if len(res.Params) != 2 {
		t.Errorf("expected limit/offset params, got %v", res.Params)
	}
}

func TestBuildSelectSQLFilters(t *testing.T) {
	plan := &QueryPlan{
		Module:  testModule(),
		Page:    2,
		PerPage: 10,
		Filters: []WhereClause{{Field: "price", Operator: "lte", Value: 500.0}},
		Sorts:   []OrderClause{{Field: "title", Dir: "ASC"}},
	}
	res := BuildSelectSQL(plan)
	if !strings.Contains(res.SQL, "price <= $1") {
		t.Errorf("expected price filter: %s", res.SQL)
	}
	if !strings.Contains(res.SQL, "ORDER BY title ASC") {
		t.Errorf("expected order clause: %s", res.SQL)
	}
	// limit=10, offset=10 for page 2
	if res.Params[1] != 500.0 && res.Params[0] != 500.0 {
		t.Errorf("filter value missing from params: %v", res.Params)
	}
	if res.Params[len(res.Params)-1] != 10 {
		t.Errorf("expected offset 10, got %v", res.Params[len(res.Params)-1])
	}
}

func TestBuildCountSQLSharesFilters(t *testing.T) {
	plan := &QueryPlan{
		Module:  testModule(),
		Filters: []WhereClause{{Field: "active", Operator: "eq", Value: true}},
	}
	res := BuildCountSQL(plan)
	if !strings.Contains(res.SQL, "COUNT(*)") || !strings.Contains(res.SQL, "active = $1") {
		t.Errorf("unexpected count sql: %s", res.SQL)
	}
	if strings.Contains(res.SQL, "LIMIT") {
		t.Errorf("count query must not paginate: %s", res.SQL)
	}
}

func TestCoerceValueInList(t *testing.T) {
	field := &metadata.Field{Name: "price", Type: "int"}
	v, err := coerceValue(field, "1, 2,3", "in")
	if err != nil {
		t.Fatalf("coerce: %v", err)
	}
	list, ok := v.([]any)
	if !ok || len(list) != 3 || list[0] != 1 || list[2] != 3 {
		t.Errorf("unexpected coerced list %v", v)
	}
}

func TestParseFilterKey(t *testing.T) {
	if f, op := parseFilterKey("price.gte"); f != "price" || op != "gte" {
		t.Errorf("got %s/%s", f, op)
	}
	if f, op := parseFilterKey("status"); f != "status" || op != "eq" {
		t.Errorf("got %s/%s", f, op)
	}
}
