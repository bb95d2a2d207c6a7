package capture

import (
	"regexp"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"trackcheck/internal/logger"
	"trackcheck/pkg/metrics"
	"trackcheck/pkg/models"
)

// analyticsContext is the slice of playwright.BrowserContext the tracker
// uses: listener registration and the current page set.
type analyticsContext interface {
	OnRequest(fn func(playwright.Request))
	OnPage(fn func(playwright.Page))
	Pages() []playwright.Page
}

// Tracker observes outbound analytics calls for one browser session. It
// listens at the BrowserContext level so every page and every tab the
// session opens feeds the same append-only log. Events are immutable once
// appended; queries return copies of the slice headers and never mutate.
type Tracker struct {
	mu       sync.Mutex
	context  analyticsContext
	pages    []playwright.Page
	events   []models.CapturedEvent
	running  bool
	attached bool

	endpoint *regexp.Regexp
	logger   logger.Logger
}

// NewTracker builds a tracker for the session owning the given page.
// endpointPattern is matched against request URLs; only matching POSTs are
// captured.
func NewTracker(page playwright.Page, endpointPattern string, log logger.Logger) (*Tracker, error) {
	endpoint, err := regexp.Compile(endpointPattern)
	if err != nil {
		return nil, err
	}

	return &Tracker{
		context:  page.Context(),
		pages:    []playwright.Page{page},
		endpoint: endpoint,
		logger:   log,
	}, nil
}

// Start attaches the context-level listeners. Idempotent: calling Start on
// a running tracker adds no duplicate listeners, and a Stop/Start cycle
// reuses the listeners registered the first time.
func (t *Tracker) Start() {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		t.logger.Warnw("Tracker already running")
		return
	}
	t.running = true

	for _, page := range t.context.Pages() {
		t.addPageLocked(page)
	}
	pageCount := len(t.pages)
	attach := !t.attached
	t.attached = true
	t.mu.Unlock()

	if attach {
		// Context-level listeners see requests from every page, current and
		// future, so no per-page listeners are registered. Stop leaves them
		// in place; they are registered exactly once per tracker.
		t.context.OnRequest(t.onRequest)
		t.context.OnPage(t.onNewPage)
	}

	metrics.TrackedPages.Set(float64(pageCount))
	t.logger.Infow("Network tracking started", "pages", pageCount)
}

// Stop halts capture. Listeners stay registered but ignore traffic, and
// already-captured events are retained.
func (t *Tracker) Stop() {
	t.mu.Lock()
	wasRunning := t.running
	t.running = false
	t.mu.Unlock()

	if !wasRunning {
		t.logger.Warnw("Tracker was not running")
		return
	}
	t.logger.Infow("Network tracking stopped")
}

// Running reports whether the tracker is currently capturing.
func (t *Tracker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Clear empties the captured log. Used at scenario reset points within one
// browser session.
func (t *Tracker) Clear() {
	t.mu.Lock()
	t.events = nil
	t.mu.Unlock()
	t.logger.Infow("Captured log cleared")
}

func (t *Tracker) onNewPage(page playwright.Page) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	t.addPageLocked(page)
	metrics.TrackedPages.Set(float64(len(t.pages)))
	t.logger.Infow("Tracking new page", "url", page.URL())
}

func (t *Tracker) addPageLocked(page playwright.Page) {
	for _, p := range t.pages {
		if p == page {
			return
		}
	}
	t.pages = append(t.pages, page)
}

func (t *Tracker) onRequest(request playwright.Request) {
	t.mu.Lock()
	running := t.running
	t.mu.Unlock()
	if !running {
		return
	}

	requestURL := request.URL()
	if !t.endpoint.MatchString(requestURL) {
		return
	}
	if request.Method() != "POST" {
		metrics.DroppedRequestsTotal.Inc()
		return
	}

	postData, err := request.PostData()
	if err != nil {
		t.logger.Warnw("Failed to read POST body", "url", requestURL, "error", err)
		postData = ""
	}

	payload := parsePayload(postData)
	kind := Classify(requestURL, payload)

	event := models.CapturedEvent{
		Kind:        kind,
		URL:         requestURL,
		Method:      "POST",
		Timestamp:   time.Now(),
		Page:        originPage(request),
		Payload:     payload,
		Spm:         extractSpm(payload),
		ProductCode: extractProductCode(payload, requestURL),
	}

	t.mu.Lock()
	if t.running {
		t.events = append(t.events, event)
	}
	t.mu.Unlock()

	metrics.CapturedEventsTotal.WithLabelValues(string(kind)).Inc()
	t.logger.Debugw("Captured analytics call", "kind", kind, "url", requestURL)
}

func originPage(request playwright.Request) string {
	frame := request.Frame()
	if frame == nil {
		return ""
	}
	page := frame.Page()
	if page == nil {
		return ""
	}
	return page.URL()
}

// snapshot copies the current log under the lock; queries filter the copy.
func (t *Tracker) snapshot() []models.CapturedEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.CapturedEvent, len(t.events))
	copy(out, t.events)
	return out
}

// All returns every captured event in completion order.
func (t *Tracker) All() []models.CapturedEvent {
	return t.snapshot()
}

// Events returns captured events of one kind, in capture order.
func (t *Tracker) Events(kind models.EventKind) []models.CapturedEvent {
	var out []models.CapturedEvent
	for _, e := range t.snapshot() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// EventsBySpm returns events of one kind whose spm identifies the given
// placement (exact or dot-boundary prefix in either direction). One page
// fires exposure events for many modules at once; this isolates one
// module's share.
func (t *Tracker) EventsBySpm(kind models.EventKind, spm string) []models.CapturedEvent {
	var out []models.CapturedEvent
	for _, e := range t.Events(kind) {
		if spmMatch(e.Spm, spm) {
			out = append(out, e)
		}
	}
	return out
}

// EventsByProduct returns events of one kind for the given product code.
// Product Exposure payloads batch many products into one call, so they
// match when any expdata entry carries the code. PDP click payloads may
// carry no code at all and are included, matching how single-product
// scenarios read them.
func (t *Tracker) EventsByProduct(kind models.EventKind, productCode string) []models.CapturedEvent {
	var out []models.CapturedEvent
	for _, e := range t.Events(kind) {
		if kind == models.KindProductExposure {
			for _, item := range expdataItems(e.Payload) {
				if expdataItemProductCode(item) == productCode {
					out = append(out, e)
					break
				}
			}
			continue
		}

		if e.ProductCode == productCode {
			out = append(out, e)
		} else if kind.IsPdpClick() && e.ProductCode == "" {
			out = append(out, e)
		}
	}
	return out
}

// ProductExposure returns Product Exposure events for a product code,
// additionally requiring a matching spm on the same expdata entry when spm
// is non-empty.
func (t *Tracker) ProductExposure(productCode, spm string) []models.CapturedEvent {
	if spm == "" {
		return t.EventsByProduct(models.KindProductExposure, productCode)
	}

	var out []models.CapturedEvent
	for _, e := range t.Events(models.KindProductExposure) {
		for _, item := range expdataItems(e.Payload) {
			if expdataItemProductCode(item) != productCode {
				continue
			}
			if spmMatch(expdataItemSpm(item), spm) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// PageViews returns PV and PDP PV events for a product code.
func (t *Tracker) PageViews(productCode string) []models.CapturedEvent {
	out := t.EventsByProduct(models.KindPV, productCode)
	return append(out, t.EventsByProduct(models.KindPdpPV, productCode)...)
}
