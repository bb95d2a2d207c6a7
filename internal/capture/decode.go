package capture

import (
	"encoding/json"
	"net/url"
	"strings"
)

// The aplus beacon body nests several layers of percent-encoding: the body
// is either JSON or a query string, the gokey value inside it is an encoded
// query string of its own, and individual gokey parameters (expdata,
// params-exp, params-clk, utLogMap) carry encoded JSON one or two levels
// deeper. Decoded forms are stored next to the raw value as
// {"raw": ..., "parsed": ...} so dumps keep the original bytes.

const maxDecodePasses = 3

// unescape decodes one layer of percent-encoding. PathUnescape rather than
// QueryUnescape: '+' inside these payloads is a literal plus, not a space.
func unescape(s string) string {
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

// parseJSONParam peels up to three layers of percent-encoding off a value
// and returns the first successful JSON object/array parse.
func parseJSONParam(value string) interface{} {
	if value == "" {
		return nil
	}
	decoded := value
	for i := 0; i < maxDecodePasses; i++ {
		decoded = unescape(decoded)
		var parsed interface{}
		if err := json.Unmarshal([]byte(decoded), &parsed); err != nil {
			continue
		}
		switch parsed.(type) {
		case map[string]interface{}, []interface{}:
			return parsed
		}
	}
	return nil
}

func looksLikeJSON(value string) bool {
	s := strings.TrimSpace(value)
	if strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{") {
		return true
	}
	u := strings.TrimSpace(unescape(value))
	return strings.HasPrefix(u, "[") || strings.HasPrefix(u, "{")
}

// decodeParamsPair decodes a params-exp or params-clk value: one layer of
// percent-encoding, then &-separated pairs, with utLogMap parsed as JSON.
func decodeParamsPair(paramsStr string) map[string]interface{} {
	decoded := map[string]interface{}{}
	if paramsStr == "" {
		return decoded
	}

	for _, item := range strings.Split(unescape(paramsStr), "&") {
		key, value, ok := strings.Cut(item, "=")
		if !ok {
			continue
		}
		decodedKey := unescape(key)
		decodedValue := unescape(value)

		if decodedKey == "utLogMap" {
			decoded[decodedKey] = map[string]interface{}{
				"raw":    decodedValue,
				"parsed": parseJSONParam(decodedValue),
			}
		} else {
			decoded[decodedKey] = decodedValue
		}
	}

	return decoded
}

// decodeExpdata parses the expdata JSON array and expands each item's
// exargs.params-exp / exargs.params-clk in place.
func decodeExpdata(expdataStr string) []interface{} {
	var expdata []interface{}
	if err := json.Unmarshal([]byte(expdataStr), &expdata); err != nil {
		return nil
	}

	decodedItems := make([]interface{}, 0, len(expdata))
	for _, item := range expdata {
		itemMap, ok := item.(map[string]interface{})
		if !ok {
			decodedItems = append(decodedItems, item)
			continue
		}

		decodedItem := make(map[string]interface{}, len(itemMap))
		for k, v := range itemMap {
			decodedItem[k] = v
		}

		if exargs, ok := itemMap["exargs"].(map[string]interface{}); ok {
			decodedExargs := make(map[string]interface{}, len(exargs))
			for k, v := range exargs {
				decodedExargs[k] = v
			}
			for _, pairKey := range []string{"params-exp", "params-clk"} {
				if raw, ok := exargs[pairKey]; ok {
					rawStr := stringify(raw)
					decodedExargs[pairKey] = map[string]interface{}{
						"raw":    raw,
						"parsed": decodeParamsPair(rawStr),
					}
				}
			}
			decodedItem["exargs"] = decodedExargs
		}

		decodedItems = append(decodedItems, decodedItem)
	}

	return decodedItems
}

// decodeGokey expands the gokey query string into its parameter map.
func decodeGokey(gokey string) map[string]interface{} {
	decodedGokey := unescape(gokey)

	params := map[string]interface{}{}
	for _, item := range strings.Split(decodedGokey, "&") {
		key, value, ok := strings.Cut(item, "=")
		if !ok {
			continue
		}
		decodedKey := unescape(key)
		decodedValue := unescape(value)

		switch {
		case decodedKey == "expdata":
			params[decodedKey] = map[string]interface{}{
				"raw":    decodedValue,
				"parsed": decodeExpdata(decodedValue),
			}
		case decodedKey == "params-clk" || decodedKey == "params-exp":
			params[decodedKey] = map[string]interface{}{
				"raw":    decodedValue,
				"parsed": decodeParamsPair(decodedValue),
			}
		case looksLikeJSON(decodedValue):
			if parsed := parseJSONParam(decodedValue); parsed != nil {
				params[decodedKey] = map[string]interface{}{
					"raw":    decodedValue,
					"parsed": parsed,
				}
			} else {
				params[decodedKey] = decodedValue
			}
		default:
			params[decodedKey] = decodedValue
		}
	}

	return map[string]interface{}{
		"decoded_gokey": decodedGokey,
		"params":        params,
	}
}

// parseQueryString parses a form-style body, expanding gokey when present.
func parseQueryString(queryString string) map[string]interface{} {
	parsed := map[string]interface{}{}
	if queryString == "" {
		return parsed
	}

	for _, item := range strings.Split(queryString, "&") {
		key, value, ok := strings.Cut(item, "=")
		if !ok {
			continue
		}
		decodedKey := unescape(key)
		decodedValue := unescape(value)

		if decodedKey == "gokey" && decodedValue != "" {
			parsed[decodedKey] = decodedValue
			parsed["decoded_gokey"] = decodeGokey(decodedValue)
		} else {
			parsed[decodedKey] = decodedValue
		}
	}

	return parsed
}

// parsePayload decodes a POST body into the payload map stored on the
// captured event. JSON bodies keep their structure (plus decoded_gokey);
// query-string bodies are parsed pair-wise; anything else is kept raw.
func parsePayload(postData string) map[string]interface{} {
	if postData == "" {
		return nil
	}

	var parsed interface{}
	if err := json.Unmarshal([]byte(postData), &parsed); err == nil {
		if m, ok := parsed.(map[string]interface{}); ok {
			payload := make(map[string]interface{}, len(m)+1)
			for k, v := range m {
				payload[k] = v
			}
			if gokey, ok := m["gokey"].(string); ok && gokey != "" {
				payload["decoded_gokey"] = decodeGokey(gokey)
			}
			return payload
		}
		return map[string]interface{}{"_raw": parsed}
	}

	if strings.ContainsAny(postData, "&=") {
		return parseQueryString(postData)
	}

	return map[string]interface{}{"_raw": postData}
}

func stringify(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	case float64:
		// JSON numbers arrive as float64; integral values print without
		// the fractional part so "0" compares equal to 0.
		b, _ := json.Marshal(s)
		return string(b)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
