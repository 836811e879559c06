package textutil

import "strings"

// NormalizeStringMap trims keys and values, removing entries with empty keys
// or empty values. Used when flattening checkout metadata for the provider,
// whose metadata store only accepts flat non-empty string pairs.
func NormalizeStringMap(values map[string]string) map[string]string {
	if len(values) == 0 {
		return nil
	}
	result := make(map[string]string, len(values))
	for key, value := range values {
		trimmedKey := strings.TrimSpace(key)
		trimmedValue := strings.TrimSpace(value)
		if trimmedKey == "" || trimmedValue == "" {
			continue
		}
		result[trimmedKey] = trimmedValue
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
