// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package roomstate

import "fmt"

// optionalString reads key from content. A missing key or JSON null
// is absent; any non-string value is malformed.
func optionalString(content map[string]any, key string) (string, bool, error) {
	raw, ok := content[key]
	if !ok || raw == nil {
		return "", false, nil
	}
	value, ok := raw.(string)
	if !ok {
		return "", false, fmt.Errorf("%w: content.%s is %T, want string", errMalformed, key, raw)
	}
	return value, true, nil
}

// requiredString reads a non-empty string key from content.
func requiredString(content map[string]any, key string) (string, error) {
	value, present, err := optionalString(content, key)
	if err != nil {
		return "", err
	}
	if !present || value == "" {
		return "", errMissing("content." + key)
	}
	return value, nil
}

func errMissing(field string) error {
	return fmt.Errorf("%w: missing %s", errMalformed, field)
}
