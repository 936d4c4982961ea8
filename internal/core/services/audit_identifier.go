package services

import "sort"

// identifierFields are tried in order for a human-readable entity identifier.
var identifierFields = []string{
	"name",
	"title",
	"code",
	"number",
	"reference_number",
	"invoice_number",
	"account_number",
	"transaction_number",
}

// resolveIdentifier returns the first non-empty identifier attribute, or "#<id>".
func resolveIdentifier(id string, attrs map[string]string) string {
	for _, field := range identifierFields {
		if v := attrs[field]; v != "" {
			return v
		}
	}
	return "#" + id
}

// changedFields returns the sorted keys whose values differ between old and next.
// A key present on only one side counts as changed.
func changedFields(old, next map[string]string) []string {
	var changed []string
	for k, v := range next {
		if prev, ok := old[k]; !ok || prev != v {
			changed = append(changed, k)
		}
	}
	for k := range old {
		if _, ok := next[k]; !ok {
			changed = append(changed, k)
		}
	}
	sort.Strings(changed)
	return changed
}

func pick(attrs map[string]string, keys []string) map[string]string {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := attrs[k]; ok {
			out[k] = v
		}
	}
	return out
}

func copyAttrs(attrs map[string]string) map[string]string {
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
