package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LoadAll populates the registry with the builtin module catalog and the
// validation rules stored in the database.
func LoadAll(ctx context.Context, pool *pgxpool.Pool, reg *Registry) error {
	reg.LoadModules(BuiltinModules())

	rules, err := loadRules(ctx, pool)
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}
	reg.LoadRules(rules)

	log.Printf("Loaded %d modules, %d rules into registry", len(reg.AllModules()), len(rules))
	return nil
}

func loadRules(ctx context.Context, pool *pgxpool.Pool) ([]*Rule, error) {
	rows, err := pool.Query(ctx,
		"SELECT id, module, hook, type, definition, priority, active FROM _rules ORDER BY module, priority")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*Rule
	for rows.Next() {
		var r Rule
		var defJSON []byte
		if err := rows.Scan(&r.ID, &r.Module, &r.Hook, &r.Type, &defJSON, &r.Priority, &r.Active); err != nil {
			return nil, fmt.Errorf("scan rule row: %w", err)
		}
		if err := json.Unmarshal(defJSON, &r.Definition); err != nil {
			log.Printf("WARN: skipping rule %s (invalid JSON): %v", r.ID, err)
			continue
		}
		rules = append(rules, &r)
	}
	return rules, rows.Err()
}
