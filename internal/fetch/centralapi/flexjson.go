package centralapi

import (
	"encoding/json"
	"fmt"
)

// flexStringArray parses a field that Polymarket's Gamma/Data APIs
// sometimes return as a native JSON array and sometimes as a JSON-encoded
// string containing that array. One helper used by every
// flexible-encoding field instead of a bespoke parse method per field.
func flexStringArray(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var direct []string
	if err := json.Unmarshal(raw, &direct); err == nil {
		return flattenNestedArrays(direct)
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil && encoded != "" {
		var inner []string
		if err := json.Unmarshal([]byte(encoded), &inner); err == nil {
			return inner
		}
	}
	return nil
}

// flattenNestedArrays handles the Gamma API's occasional double-encoding:
// ["[\"a\",\"b\"]"] instead of ["a","b"].
func flattenNestedArrays(in []string) []string {
	if len(in) == 1 && len(in[0]) > 0 && in[0][0] == '[' {
		var nested []string
		if err := json.Unmarshal([]byte(in[0]), &nested); err == nil {
			return nested
		}
	}
	return in
}

// flexFloatArray parses outcome_prices, accepting a native float array, a
// native string array, or either wrapped in a JSON-encoded string.
func flexFloatArray(raw json.RawMessage) []float64 {
	if len(raw) == 0 {
		return nil
	}

	var floats []float64
	if err := json.Unmarshal(raw, &floats); err == nil {
		return floats
	}

	var strs []string
	if err := json.Unmarshal(raw, &strs); err == nil {
		return parseFloatStrings(strs)
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil && encoded != "" {
		if err := json.Unmarshal([]byte(encoded), &floats); err == nil {
			return floats
		}
		if err := json.Unmarshal([]byte(encoded), &strs); err == nil {
			return parseFloatStrings(strs)
		}
	}
	return nil
}

func parseFloatStrings(strs []string) []float64 {
	out := make([]float64, len(strs))
	for i, s := range strs {
		var f float64
		fmt.Sscanf(s, "%f", &f)
		out[i] = f
	}
	return out
}
