package models

import "time"

// EventKind is the classification of one intercepted analytics call.
// The string values are part of the dump artifact contract.
type EventKind string

const (
	KindPV                EventKind = "PV"
	KindPdpPV             EventKind = "PDP PV"
	KindModuleExposure    EventKind = "Module Exposure"
	KindProductExposure   EventKind = "Product Exposure"
	KindProductClick      EventKind = "Product Click"
	KindProductAtcClick   EventKind = "Product ATC Click"
	KindProductMinidetail EventKind = "Product Minidetail"
	KindPdpBuynowClick    EventKind = "PDP Buynow Click"
	KindPdpAtcClick       EventKind = "PDP ATC Click"
	KindPdpGiftClick      EventKind = "PDP Gift Click"
	KindPdpJoinClick      EventKind = "PDP Join Click"
	KindPdpRentalClick    EventKind = "PDP Rental Click"
	KindExposure          EventKind = "Exposure"
	KindClick             EventKind = "Click"
	KindUnknown           EventKind = "Unknown"
)

// PdpClickKinds are the PDP-only click events. Their payloads may carry no
// product code at all, which changes how product filters treat them.
var PdpClickKinds = []EventKind{
	KindPdpBuynowClick,
	KindPdpAtcClick,
	KindPdpGiftClick,
	KindPdpJoinClick,
	KindPdpRentalClick,
}

// kindConfigKeys maps an event kind to its section key inside a module
// template file. Kinds without a section (Exposure, Click, Unknown) are
// never validated against a template.
var kindConfigKeys = map[EventKind]string{
	KindPV:                "pv",
	KindPdpPV:             "pdp_pv",
	KindModuleExposure:    "module_exposure",
	KindProductExposure:   "product_exposure",
	KindProductClick:      "product_click",
	KindProductAtcClick:   "product_atc_click",
	KindProductMinidetail: "product_minidetail",
	KindPdpBuynowClick:    "pdp_buynow_click",
	KindPdpAtcClick:       "pdp_atc_click",
	KindPdpGiftClick:      "pdp_gift_click",
	KindPdpJoinClick:      "pdp_join_click",
	KindPdpRentalClick:    "pdp_rental_click",
}

// ConfigKey returns the template section key for the kind, or "" when the
// kind has no template section.
func (k EventKind) ConfigKey() string {
	return kindConfigKeys[k]
}

// KindForConfigKey is the reverse of ConfigKey.
func KindForConfigKey(key string) (EventKind, bool) {
	for kind, k := range kindConfigKeys {
		if k == key {
			return kind, true
		}
	}
	return "", false
}

// IsPdpClick reports whether the kind is one of the PDP-only click events.
func (k EventKind) IsPdpClick() bool {
	for _, c := range PdpClickKinds {
		if k == c {
			return true
		}
	}
	return false
}

// CapturedEvent is one intercepted analytics call. Instances are immutable
// once appended to the session log; queries hand out the same values.
type CapturedEvent struct {
	Kind      EventKind `json:"type"`
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	Timestamp time.Time `json:"timestamp"`

	// Page is the URL of the originating page at capture time. Events from
	// every tab of the session land in one shared log; Page disambiguates.
	Page string `json:"page,omitempty"`

	// Payload is the decoded request body. Vendor-nested values (gokey,
	// params-exp, params-clk, expdata, utLogMap) are expanded in place as
	// {"raw": ..., "parsed": ...} pairs.
	Payload map[string]interface{} `json:"payload"`

	// Spm and ProductCode are extracted from Payload at capture time and
	// used by the filtered queries.
	Spm         string `json:"spm,omitempty"`
	ProductCode string `json:"product_code,omitempty"`
}
