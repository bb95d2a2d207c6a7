package capture

import (
	"net/url"
	"strings"
)

// Parameter keys the product code may hide under. _p_prod wins over
// x_object_id when both appear.
var goodscodeParamKeys = []string{"goodscode", "goodsCode", "goods_code", "goodscd", "goodsCd"}

// findStringRecursive walks a decoded payload looking for the first
// non-empty value under any of the target keys. Maps decoded by this
// package prefer their "parsed" branch so raw percent-encoded duplicates
// never shadow the decoded value. The structures are built from JSON and
// acyclic, so no visited tracking is needed.
func findStringRecursive(obj interface{}, targetKeys ...string) string {
	switch o := obj.(type) {
	case map[string]interface{}:
		for _, key := range targetKeys {
			if v, ok := o[key]; ok {
				if s := stringify(v); s != "" {
					return s
				}
			}
		}

		if parsed, ok := o["parsed"]; ok {
			if result := findStringRecursive(parsed, targetKeys...); result != "" {
				return result
			}
		}

		for _, value := range o {
			if result := findStringRecursive(value, targetKeys...); result != "" {
				return result
			}
		}

	case []interface{}:
		for _, item := range o {
			if result := findStringRecursive(item, targetKeys...); result != "" {
				return result
			}
		}
	}

	return ""
}

// goodscodeFromURLQuery pulls a product code from the query of a URL or a
// percent-encoded URL string.
func goodscodeFromURLQuery(urlStr string, decodeFirst bool) string {
	if urlStr == "" {
		return ""
	}
	s := urlStr
	if decodeFirst {
		s = unescape(s)
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	qs := u.Query()
	for _, key := range goodscodeParamKeys {
		if v := qs.Get(key); v != "" {
			return v
		}
	}
	return ""
}

// extractProductCode resolves the product code for one captured call.
// Order: x_object_id at the top level, direct goodscode aliases, recursive
// _p_prod then x_object_id inside decoded_gokey, the gokey params map, and
// finally the _p_url or request URL query.
func extractProductCode(payload map[string]interface{}, requestURL string) string {
	if payload == nil {
		return ""
	}

	if v, ok := payload["x_object_id"]; ok {
		if s := stringify(v); s != "" {
			return s
		}
	}

	for _, key := range goodscodeParamKeys {
		if v, ok := payload[key]; ok {
			if s := stringify(v); s != "" {
				return s
			}
		}
	}

	if decodedGokey, ok := payload["decoded_gokey"]; ok {
		if result := findStringRecursive(decodedGokey, "_p_prod"); result != "" {
			return result
		}
		if result := findStringRecursive(decodedGokey, "x_object_id"); result != "" {
			return result
		}
		if gk, ok := decodedGokey.(map[string]interface{}); ok {
			if params, ok := gk["params"].(map[string]interface{}); ok {
				for _, key := range goodscodeParamKeys {
					if v, ok := params[key]; ok {
						if s := stringify(v); s != "" {
							return s
						}
					}
				}
			}
		}
	}

	if pURL, ok := payload["_p_url"].(string); ok {
		if result := goodscodeFromURLQuery(pURL, true); result != "" {
			return result
		}
	}
	return goodscodeFromURLQuery(requestURL, false)
}

// extractSpm resolves the spm placement path for one captured call.
// decoded_gokey.params.spm is authoritative when present.
func extractSpm(payload map[string]interface{}) string {
	if payload == nil {
		return ""
	}

	if gk, ok := payload["decoded_gokey"].(map[string]interface{}); ok {
		if params, ok := gk["params"].(map[string]interface{}); ok {
			if v, ok := params["spm"]; ok {
				if s := stringify(v); s != "" {
					return s
				}
			}
		}
	}

	return findStringRecursive(payload, "spm")
}

// spmMatch reports whether two spm paths identify the same placement.
// Equal paths match, and so does either path extending the other at a dot
// boundary: "a.b.c" matches "a.b.c.d0_0" in both directions, but never
// "a.b.cd".
func spmMatch(logSpm, targetSpm string) bool {
	if logSpm == "" || targetSpm == "" {
		return false
	}
	if logSpm == targetSpm {
		return true
	}
	if strings.HasPrefix(logSpm, targetSpm+".") {
		return true
	}
	return strings.HasPrefix(targetSpm, logSpm+".")
}

// expdataItems returns the decoded expdata entries of a Product Exposure
// payload, or nil.
func expdataItems(payload map[string]interface{}) []interface{} {
	gk, ok := payload["decoded_gokey"].(map[string]interface{})
	if !ok {
		return nil
	}
	params, ok := gk["params"].(map[string]interface{})
	if !ok {
		return nil
	}
	expdata, ok := params["expdata"].(map[string]interface{})
	if !ok {
		return nil
	}
	items, _ := expdata["parsed"].([]interface{})
	return items
}

// expdataItemProductCode extracts the product code of one expdata entry:
// _p_prod from the decoded params-exp, else utLogMap.x_object_id.
func expdataItemProductCode(item interface{}) string {
	if code := findStringRecursive(item, "_p_prod"); code != "" {
		return code
	}
	return findStringRecursive(item, "x_object_id")
}

// expdataItemSpm extracts the spm of one expdata entry.
func expdataItemSpm(item interface{}) string {
	if m, ok := item.(map[string]interface{}); ok {
		if v, ok := m["spm"]; ok {
			if s := stringify(v); s != "" {
				return s
			}
		}
	}
	return findStringRecursive(item, "spm")
}

// pdpPVPayload reports whether a gif beacon is the product-detail page view
// rather than a generic one.
func pdpPVPayload(payload map[string]interface{}) bool {
	if payload == nil {
		return false
	}
	if v, ok := payload["_p_ispdp"]; ok && stringify(v) == "1" {
		return true
	}
	if v, ok := payload["_p_typ"]; ok && strings.EqualFold(stringify(v), "pdp") {
		return true
	}
	if decodedGokey, ok := payload["decoded_gokey"]; ok {
		if findStringRecursive(decodedGokey, "_p_prod") != "" {
			return true
		}
	}
	if v, ok := payload["_p_prod"]; ok && stringify(v) != "" {
		return true
	}
	return false
}
