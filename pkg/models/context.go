package models

// RuntimeContext holds the values gathered from the live page and session
// that placeholder tokens resolve against. It is captured once per scenario
// step and read-only afterwards.
type RuntimeContext struct {
	ProductCode    string `json:"product_code"`
	Keyword        string `json:"keyword,omitempty"`
	CategoryID     string `json:"category_id,omitempty"`
	OriginPrice    string `json:"origin_price,omitempty"`
	PromotionPrice string `json:"promotion_price,omitempty"`
	CouponPrice    string `json:"coupon_price,omitempty"`
	IsAd           string `json:"is_ad,omitempty"`
	Environment    string `json:"environment"`
}

// SearchValue returns the keyword, falling back to the category id. An empty
// string is a legal resolution for <keyword>: category browse pages have no
// query.
func (c RuntimeContext) SearchValue() string {
	if c.Keyword != "" {
		return c.Keyword
	}
	return c.CategoryID
}

// AdTraffic reports whether the session reached the product through an ad
// placement. Accepts the spellings the page markup uses.
func (c RuntimeContext) AdTraffic() bool {
	switch c.IsAd {
	case "Y", "y", "true", "TRUE", "True", "1":
		return true
	}
	return false
}
