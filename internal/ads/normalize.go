package ads

import (
	"fmt"
	"strings"
)

const AccountIDPrefix = "act_"

// ValidationError rejects malformed input before any network call. Param
// names the offending parameter.
type ValidationError struct {
	Param   string
	Message string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Message)
}

// NormalizeAccountID canonicalizes an ad account id to its act_-prefixed
// form. Idempotent: both "123" and "act_123" yield "act_123".
func NormalizeAccountID(id string) (string, error) {
	normalized := strings.TrimSpace(id)
	if strings.HasPrefix(strings.ToLower(normalized), AccountIDPrefix) {
		normalized = normalized[len(AccountIDPrefix):]
	}
	if normalized == "" {
		return "", &ValidationError{Param: "account_id", Message: "account id is required"}
	}
	if strings.Contains(normalized, "/") {
		return "", &ValidationError{
			Param:   "account_id",
			Message: fmt.Sprintf("%q is not a single graph id token", id),
		}
	}
	return AccountIDPrefix + normalized, nil
}

// FilterByStatus returns the input-order subsequence of records whose status
// field exactly matches status. An empty status returns the input unchanged;
// no match yields an empty slice, not an error.
func FilterByStatus(records []map[string]any, status string) []map[string]any {
	if status == "" {
		return records
	}
	out := make([]map[string]any, 0, len(records))
	for _, record := range records {
		value, _ := record["status"].(string)
		if value == status {
			out = append(out, record)
		}
	}
	return out
}
