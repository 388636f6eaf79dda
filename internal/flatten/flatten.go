// Package flatten converts the nested per-action-type arrays Facebook embeds
// in insights rows into flat scalar fields suitable for JSON tool output.
package flatten

import (
	"fmt"
	"strconv"
	"strings"
)

// FlattenError reports an action entry whose value is not numeric. Bad values
// fail the row instead of being silently coerced to zero.
type FlattenError struct {
	Field      string
	ActionType string
	Value      any
}

func (e *FlattenError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("non-numeric value %v for action type %q in field %q", e.Value, e.ActionType, e.Field)
}

// Canonical Marketing API fields keep their historical singular key prefixes
// (actions -> action_purchase); any other action-list field keeps its own name.
var fieldKeyPrefixes = map[string]string{
	"actions":           "action",
	"action_values":     "action_value",
	"conversions":       "conversion",
	"conversion_values": "conversion_value",
}

type fieldKind int

const (
	scalarField fieldKind = iota
	actionListField
	nestedMapField
)

func classify(value any) fieldKind {
	switch typed := value.(type) {
	case []any:
		for _, item := range typed {
			entry, ok := item.(map[string]any)
			if !ok {
				return scalarField
			}
			if _, ok := entry["action_type"]; !ok {
				return scalarField
			}
		}
		return actionListField
	case map[string]any:
		return nestedMapField
	default:
		return scalarField
	}
}

func keyPrefix(field string) string {
	if prefix, ok := fieldKeyPrefixes[field]; ok {
		return prefix
	}
	return field
}

// conversionFields also arrive as plain type->value objects; their values are
// metric counts and get the same strict numeric treatment as action lists.
var conversionFields = map[string]struct{}{
	"conversions":       {},
	"conversion_values": {},
}

// Flatten expands every action-list field of a row into one key per distinct
// action type, summing repeated types so the result is independent of array
// ordering. Nested objects such as creative are hoisted to <field>_<subkey>.
// The input row is never mutated.
func Flatten(record map[string]any) (map[string]any, error) {
	flat := make(map[string]any, len(record))

	for field, value := range record {
		// date_stop mirrors date_start for every row shape we request
		if field == "date_stop" {
			continue
		}

		switch classify(value) {
		case actionListField:
			if err := flattenActionList(flat, field, value.([]any)); err != nil {
				return nil, err
			}
		case nestedMapField:
			if err := flattenNestedMap(flat, field, value.(map[string]any)); err != nil {
				return nil, err
			}
		default:
			flat[field] = value
		}
	}
	return flat, nil
}

// Rows flattens every row; one bad row fails the batch, matching the
// no-partial-results propagation policy of the fetch layer.
func Rows(rows []map[string]any) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		flat, err := Flatten(row)
		if err != nil {
			return nil, err
		}
		out = append(out, flat)
	}
	return out, nil
}

func flattenActionList(flat map[string]any, field string, entries []any) error {
	prefix := keyPrefix(field)
	for _, item := range entries {
		entry := item.(map[string]any)
		actionType, _ := entry["action_type"].(string)
		if actionType == "" {
			actionType = "unknown"
		}
		amount, ok := numericValue(entry["value"])
		if !ok {
			return &FlattenError{Field: field, ActionType: actionType, Value: entry["value"]}
		}

		key := prefix + "_" + actionType
		if existing, ok := flat[key].(float64); ok {
			flat[key] = existing + amount
			continue
		}
		flat[key] = amount
	}
	return nil
}

func flattenNestedMap(flat map[string]any, field string, nested map[string]any) error {
	_, strict := conversionFields[field]
	prefix := keyPrefix(field)
	for subKey, subValue := range nested {
		key := prefix + "_" + subKey
		if !strict {
			flat[key] = subValue
			continue
		}
		amount, ok := numericValue(subValue)
		if !ok {
			return &FlattenError{Field: field, ActionType: subKey, Value: subValue}
		}
		flat[key] = amount
	}
	return nil
}

func numericValue(value any) (float64, bool) {
	switch typed := value.(type) {
	case float64:
		return typed, true
	case int:
		return float64(typed), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// Facebook returns most metrics as strings. Field name fragments that mark a
// value as numeric for best-effort coercion; values that fail to parse stay
// strings, unlike action values where a bad number is an error.
var numericFieldFragments = []string{
	"spend", "impressions", "clicks", "reach", "frequency",
	"ctr", "cpc", "cpm", "conversion", "cost", "action_",
	"value", "video", "budget",
}

func isNumericField(key string) bool {
	lower := strings.ToLower(key)
	for _, fragment := range numericFieldFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}

// CoerceNumeric converts numeric-string metric fields to float64 in place of
// a copy; source rows are not mutated.
func CoerceNumeric(rows []map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		converted := make(map[string]any, len(row))
		for key, value := range row {
			text, isString := value.(string)
			if isString && isNumericField(key) {
				if parsed, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
					converted[key] = parsed
					continue
				}
			}
			converted[key] = value
		}
		out = append(out, converted)
	}
	return out
}
