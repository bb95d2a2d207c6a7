package expect

import (
	"strings"

	"trackcheck/pkg/errors"
	"trackcheck/pkg/models"
)

// Template placeholders resolve against the runtime context of the scenario
// under test. Tokens come in an ASCII and a Korean spelling; both map to
// the same context field. Resolution is all-or-nothing: a token this table
// does not know, or a required token with no runtime value, aborts the
// scenario step instead of silently asserting garbage.

// adOnlyFields are asserted only for paid placements.
var adOnlyFields = map[string]bool{
	"adProduct":    true,
	"adSubProduct": true,
}

// minidetailExcludedFields are price assertions that the minidetail beacon
// never carries.
var minidetailExcludedFields = map[string]bool{
	"origin_price":    true,
	"promotion_price": true,
	"coupon_price":    true,
}

// requiredTokens must have a non-empty runtime value; the rest may resolve
// to the empty string (a product without a coupon has no coupon price).
var requiredTokens = map[string]bool{
	"product_code":    true,
	"상품번호":            true,
	"origin_price":    true,
	"원가":              true,
	"promotion_price": true,
	"할인가":             true,
	"environment":     true,
}

// Resolve substitutes placeholders in one section against the runtime
// context and applies the per-event-type field rules. The returned specs
// contain no SpecPlaceholder entries.
func Resolve(section Section, kind models.EventKind, rctx models.RuntimeContext) ([]FieldSpec, error) {
	resolved := make([]FieldSpec, 0, len(section.Fields))

	for _, spec := range section.Fields {
		if adOnlyFields[spec.Field] && !rctx.AdTraffic() {
			continue
		}
		if kind == models.KindProductMinidetail && minidetailExcludedFields[spec.Field] {
			continue
		}

		switch spec.Kind {
		case SpecPlaceholder:
			value, err := substitute(spec.Value, rctx)
			if err != nil {
				return nil, err
			}
			spec.Kind = SpecLiteral
			spec.Value = value

		case SpecList:
			list := make([]string, 0, len(spec.List))
			for _, item := range spec.List {
				if !hasPlaceholder(item) {
					list = append(list, item)
					continue
				}
				value, err := substitute(item, rctx)
				if err != nil {
					return nil, err
				}
				list = append(list, value)
			}
			spec.List = list
		}

		resolved = append(resolved, spec)
	}

	return resolved, nil
}

func substitute(value string, rctx models.RuntimeContext) (string, error) {
	out := strings.ReplaceAll(value, "{goodscode}", rctx.ProductCode)
	if strings.Contains(value, "{goodscode}") && rctx.ProductCode == "" {
		return "", errors.ErrPlaceholderUnresolved.WithDetail("token", "{goodscode}")
	}

	var substErr error
	out = placeholderToken.ReplaceAllStringFunc(out, func(token string) string {
		name := strings.TrimSuffix(strings.TrimPrefix(token, "<"), ">")
		replacement, known := tokenValue(name, rctx)
		if !known {
			substErr = errors.ErrPlaceholderUnresolved.WithDetail("token", token)
			return token
		}
		if replacement == "" && requiredTokens[name] {
			substErr = errors.ErrPlaceholderUnresolved.
				WithDetail("token", token).
				WithDetail("message", "runtime context has no value for "+token)
			return token
		}
		return replacement
	})
	if substErr != nil {
		return "", substErr
	}
	return out, nil
}

func tokenValue(name string, rctx models.RuntimeContext) (string, bool) {
	switch name {
	case "product_code", "상품번호":
		return rctx.ProductCode, true
	case "keyword", "검색어":
		return rctx.SearchValue(), true
	case "origin_price", "원가":
		return rctx.OriginPrice, true
	case "promotion_price", "할인가":
		return rctx.PromotionPrice, true
	case "coupon_price", "쿠폰적용가":
		return rctx.CouponPrice, true
	case "environment":
		return rctx.Environment, true
	case "is_ad":
		return rctx.IsAd, true
	case "traffic_type", "trafficType":
		if rctx.AdTraffic() {
			return "ad", true
		}
		return "organic", true
	}
	return "", false
}
