package capture

import (
	"strings"

	"trackcheck/pkg/models"
)

// pathKinds maps URL path markers to event kinds. Checked in order: the
// PDP click paths first so the "gif" page-view check below never matches
// the "gif" inside "pdp.gift.click".
var pathKinds = []struct {
	marker string
	kind   models.EventKind
}{
	{"/pdp.buynow.click", models.KindPdpBuynowClick},
	{"/pdp.atc.click", models.KindPdpAtcClick},
	{"/pdp.gift.click", models.KindPdpGiftClick},
	{"/pdp.join.click", models.KindPdpJoinClick},
	{"/pdp.rental.click", models.KindPdpRentalClick},
	{"/product.atc.click", models.KindProductAtcClick},
	{"/product.click.event", models.KindProductClick},
	{"/product.minidetail.event", models.KindProductMinidetail},
	{"/module.exposure.event", models.KindModuleExposure},
	{"/product.exposure.event", models.KindProductExposure},
}

// Classify maps one analytics call to its event kind. Pure function of the
// URL path and the decoded payload; anything the table does not recognize
// comes back as KindUnknown rather than an error, because the endpoint
// carries non-tracking beacons too.
func Classify(requestURL string, payload map[string]interface{}) models.EventKind {
	urlLower := strings.ToLower(requestURL)

	for _, pk := range pathKinds {
		if strings.Contains(urlLower, pk.marker) {
			return pk.kind
		}
	}

	if strings.Contains(urlLower, "gif") {
		if pdpPVPayload(payload) {
			return models.KindPdpPV
		}
		return models.KindPV
	}

	if strings.Contains(urlLower, "exposure") {
		return models.KindExposure
	}
	if strings.Contains(urlLower, "click") {
		return models.KindClick
	}

	return models.KindUnknown
}
