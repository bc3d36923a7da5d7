package engine

import (
	"fmt"
	"sort"
	"strings"

	"estate-backend/internal/metadata"
)

// ScreenWriteBody filters an incoming write body down to fields the module
// accepts from clients, validating required fields on create. Unknown keys
// are rejected rather than dropped so typos surface early.
func ScreenWriteBody(module *metadata.Module, body map[string]any, isCreate bool) (map[string]any, []ErrorDetail) {
	var errs []ErrorDetail
	fields := make(map[string]any, len(body))

	for name, v := range body {
		if !module.IsWritable(name) {
			errs = append(errs, ErrorDetail{
				Field:   name,
				Rule:    "unknown_field",
				Message: fmt.Sprintf("Unknown or read-only field: %s", name),
			})
			continue
		}
		fields[name] = v
	}

	if isCreate {
		for _, f := range module.WritableFields() {
			if !f.Required {
				continue
			}
			if v, ok := fields[f.Name]; !ok || v == nil || v == "" {
				errs = append(errs, ErrorDetail{
					Field:   f.Name,
					Rule:    "required",
					Message: fmt.Sprintf("%s is required", f.Name),
				})
			}
		}
	}

	return fields, errs
}

// BuildInsertSQL builds a parameterized INSERT ... RETURNING for the module.
func BuildInsertSQL(module *metadata.Module, fields map[string]any) QueryResult {
	pb := &paramBuilder{}

	names := sortedKeys(fields)
	cols := make([]string, 0, len(names))
	vals := make([]string, 0, len(names))
	for _, name := range names {
		cols = append(cols, name)
		vals = append(vals, pb.Add(fields[name]))
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		module.Table,
		strings.Join(cols, ", "),
		strings.Join(vals, ", "),
		strings.Join(module.PublicFieldNames(), ", "))
	return QueryResult{SQL: sql, Params: pb.params}
}

// BuildUpdateSQL builds a parameterized UPDATE ... RETURNING for one record.
func BuildUpdateSQL(module *metadata.Module, id string, fields map[string]any) QueryResult {
	pb := &paramBuilder{}

	names := sortedKeys(fields)
	sets := make([]string, 0, len(names)+1)
	for _, name := range names {
		sets = append(sets, fmt.Sprintf("%s = %s", name, pb.Add(fields[name])))
	}
	sets = append(sets, "updated_at = NOW()")

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s RETURNING %s",
		module.Table,
		strings.Join(sets, ", "),
		module.PrimaryKey, pb.Add(id),
		strings.Join(module.PublicFieldNames(), ", "))
	return QueryResult{SQL: sql, Params: pb.params}
}

// BuildSoftDeleteSQL marks a record deleted without removing the row.
func BuildSoftDeleteSQL(module *metadata.Module, id string) QueryResult {
	pb := &paramBuilder{}
	sql := fmt.Sprintf("UPDATE %s SET deleted_at = NOW() WHERE %s = %s AND deleted_at IS NULL",
		module.Table, module.PrimaryKey, pb.Add(id))
	return QueryResult{SQL: sql, Params: pb.params}
}

// BuildHardDeleteSQL removes a record.
func BuildHardDeleteSQL(module *metadata.Module, id string) QueryResult {
	pb := &paramBuilder{}
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
		module.Table, module.PrimaryKey, pb.Add(id))
	return QueryResult{SQL: sql, Params: pb.params}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
