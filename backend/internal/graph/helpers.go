package graph

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ============================================================================
// Record Helpers
// ============================================================================

func getStringFromRecord(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func getInt64FromRecord(record *neo4j.Record, key string) int64 {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0
	}
	if i, ok := val.(int64); ok {
		return i
	}
	if i, ok := val.(int); ok {
		return int64(i)
	}
	if f, ok := val.(float64); ok {
		return int64(f)
	}
	return 0
}

func getFloat64FromRecord(record *neo4j.Record, key string) float64 {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0.0
	}
	if f, ok := val.(float64); ok {
		return f
	}
	if i, ok := val.(int64); ok {
		return float64(i)
	}
	return 0.0
}

func getBoolFromRecord(record *neo4j.Record, key string) bool {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return false
	}
	if b, ok := val.(bool); ok {
		return b
	}
	return false
}

// getIntPtrFromRecord distinguishes absent/null properties from zero values
func getIntPtrFromRecord(record *neo4j.Record, key string) *int {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return nil
	}
	if i, ok := val.(int64); ok {
		v := int(i)
		return &v
	}
	if i, ok := val.(int); ok {
		return &i
	}
	return nil
}

func getTimeFromRecord(record *neo4j.Record, key string) time.Time {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return time.Time{}
	}
	// Cypher datetime() values arrive as time.Time
	if t, ok := val.(time.Time); ok {
		return t
	}
	if s, ok := val.(string); ok {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func getStringSliceFromRecord(record *neo4j.Record, key string) []string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return []string{}
	}
	if slice, ok := val.([]interface{}); ok {
		result := make([]string, 0, len(slice))
		for _, v := range slice {
			if str, ok := v.(string); ok && str != "" {
				result = append(result, str)
			}
		}
		return result
	}
	return []string{}
}

// getActorRefsFromRecord parses COLLECT(DISTINCT {actor_id:..., name:...})
// columns. Rows where the OPTIONAL MATCH found nothing produce maps with
// nil values; those are dropped.
func getActorRefsFromRecord(record *neo4j.Record, key string) []ActorRef {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return []ActorRef{}
	}
	slice, ok := val.([]interface{})
	if !ok {
		return []ActorRef{}
	}
	result := make([]ActorRef, 0, len(slice))
	for _, v := range slice {
		m, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		id, _ := m["actor_id"].(string)
		name, _ := m["name"].(string)
		if id == "" && name == "" {
			continue
		}
		result = append(result, ActorRef{ActorID: id, Name: name})
	}
	return result
}

// buildSetClause assembles the SET fragment for a partial update.
// Only whitelisted keys survive; nil values are skipped. Property names
// come from the fixed whitelist, never from caller input, so the
// statement stays injection-free. Keys are sorted for determinism.
func buildSetClause(alias string, fields map[string]interface{}, whitelist map[string]bool) (string, map[string]interface{}) {
	keys := make([]string, 0, len(fields))
	for key, value := range fields {
		if !whitelist[key] || value == nil {
			continue
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return "", nil
	}
	sort.Strings(keys)

	clauses := make([]string, 0, len(keys))
	params := make(map[string]interface{}, len(keys)+1)
	for _, key := range keys {
		clauses = append(clauses, fmt.Sprintf("%s.%s = $%s", alias, key, key))
		params[key] = fields[key]
	}
	return strings.Join(clauses, ", "), params
}

// intPtrParam converts an optional int into a driver parameter
func intPtrParam(v *int) interface{} {
	if v == nil {
		return nil
	}
	return int64(*v)
}

// nullableString maps "" to a null property instead of an empty string
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// recordAsMap materializes a record as a plain column-name keyed map
func recordAsMap(record *neo4j.Record) map[string]interface{} {
	m := make(map[string]interface{}, len(record.Keys))
	for i, key := range record.Keys {
		m[key] = record.Values[i]
	}
	return m
}
