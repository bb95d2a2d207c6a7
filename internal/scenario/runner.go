package scenario

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"trackcheck/internal/browser"
	"trackcheck/internal/capture"
	"trackcheck/internal/config"
	"trackcheck/internal/expect"
	"trackcheck/internal/logger"
	"trackcheck/internal/match"
	"trackcheck/internal/report"
	"trackcheck/pkg/logging"
	"trackcheck/pkg/models"
	"trackcheck/pkg/waitfor"
)

// Runner drives one scenario end to end: browser session, capture,
// template resolution, validation, artifacts. Missing events fail the
// verdict; only broken setup (template, placeholder, session) fails the
// run itself.
type Runner struct {
	cfg     *config.Config
	store   *expect.Store
	engine  *match.Engine
	writer  *report.Writer
	history *report.History // nil when no mongo URI configured
	logger  logger.Logger
}

func NewRunner(cfg *config.Config, store *expect.Store, engine *match.Engine, writer *report.Writer, history *report.History, log logger.Logger) *Runner {
	return &Runner{
		cfg:     cfg,
		store:   store,
		engine:  engine,
		writer:  writer,
		history: history,
		logger:  log,
	}
}

// Run executes one scenario and returns its run record.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*report.RunRecord, error) {
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	ctx = logging.WithTCID(ctx, sc.TCID)
	started := time.Now()

	r.logger.InfowCtx(ctx, "Scenario started",
		"area", sc.Area,
		"module", sc.ModuleTitle,
		"url", sc.URL,
	)

	session := browser.NewSession(r.cfg.Browser, r.logger)
	if err := session.Start(); err != nil {
		return nil, err
	}
	defer session.Close()

	tracker, err := capture.NewTracker(session.Page, r.cfg.Capture.EndpointPattern, r.logger)
	if err != nil {
		return nil, err
	}
	tracker.Start()

	if err := session.NavigateTo(sc.URL); err != nil {
		r.failureScreenshot(session)
		return nil, err
	}

	template, err := r.store.Load(sc.Area, sc.ModuleTitle)
	if err != nil {
		return nil, err
	}

	rctx := r.runtimeContext(ctx, sc, tracker)

	policy := waitfor.Policy{
		InitialInterval: r.cfg.Wait.InitialInterval,
		MaxInterval:     r.cfg.Wait.MaxInterval,
		MaxElapsedTime:  r.cfg.Wait.MaxElapsedTime,
	}

	var verdicts []models.Verdict
	for _, key := range sc.EventTypes {
		kind, _ := models.KindForConfigKey(key)

		section, ok := template.Section(key)
		if !ok {
			// No template section means no assertion for this event type.
			r.logger.InfowCtx(ctx, "No template section, skipping", "event", kind)
			verdicts = append(verdicts, models.Verdict{TCID: sc.TCID, EventKind: kind, Passed: true, Skipped: true})
			continue
		}

		resolved, err := expect.Resolve(section, kind, rctx)
		if err != nil {
			return nil, err
		}

		expectedSpm := resolvedSpm(resolved)
		candidates := r.awaitCandidates(ctx, policy, tracker, kind, sc.ProductCode, expectedSpm)

		verdict := r.engine.Validate(ctx, sc.TCID, kind, resolved, candidates, rctx)
		verdicts = append(verdicts, verdict)

		if _, err := r.writer.WriteKind(kind, sc.ProductCode, candidates); err != nil {
			r.logger.WarnwCtx(ctx, "Event dump failed", "event", kind, "error", err)
		}
	}

	tracker.Stop()

	summary := report.Summarize(sc.TCID, verdicts)
	record := &report.RunRecord{
		ID:          runID,
		TCID:        sc.TCID,
		Module:      sc.ModuleTitle,
		Area:        sc.Area,
		Environment: r.cfg.Environment,
		StartedAt:   started,
		FinishedAt:  time.Now(),
		Passed:      summary.Passed,
		Verdicts:    verdicts,
	}

	if !summary.Passed {
		r.failureScreenshot(session)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := r.writer.WriteAll(sc.ModuleTitle, tracker.All())
		return err
	})
	if r.history != nil {
		g.Go(func() error {
			return r.history.Insert(gctx, *record)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.logger.InfowCtx(ctx, "Scenario finished",
		"passed", summary.Passed,
		"verdicts", summary.Total,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"duration", record.FinishedAt.Sub(record.StartedAt),
	)
	return record, nil
}

// awaitCandidates polls the tracker with the wait policy until the
// kind-specific query matches, then returns the final candidate set.
func (r *Runner) awaitCandidates(ctx context.Context, policy waitfor.Policy, tracker *capture.Tracker, kind models.EventKind, productCode, spm string) []models.CapturedEvent {
	query := func() []models.CapturedEvent {
		switch {
		case kind == models.KindProductExposure && productCode != "":
			return tracker.ProductExposure(productCode, spm)
		case productCode != "" && (kind == models.KindPV || kind == models.KindPdpPV):
			return tracker.EventsByProduct(kind, productCode)
		case productCode != "" && (kind.IsPdpClick() || kind == models.KindProductClick ||
			kind == models.KindProductAtcClick || kind == models.KindProductMinidetail):
			return tracker.EventsByProduct(kind, productCode)
		case spm != "":
			return tracker.EventsBySpm(kind, spm)
		}
		return tracker.Events(kind)
	}

	waitfor.Events(ctx, policy, func() int { return len(query()) })
	return query()
}

// runtimeContext gathers the placeholder values for this run. Price fields
// come from the captured PDP PV beacon, falling back to Product
// Minidetail.
func (r *Runner) runtimeContext(ctx context.Context, sc *Scenario, tracker *capture.Tracker) models.RuntimeContext {
	rctx := models.RuntimeContext{
		ProductCode: sc.ProductCode,
		Keyword:     sc.Keyword,
		CategoryID:  sc.CategoryID,
		IsAd:        sc.IsAd,
		Environment: r.cfg.Environment,
	}

	if sc.ProductCode == "" {
		return rctx
	}

	policy := waitfor.Policy{
		InitialInterval: r.cfg.Wait.InitialInterval,
		MaxInterval:     r.cfg.Wait.MaxInterval,
		MaxElapsedTime:  r.cfg.Wait.MaxElapsedTime,
	}
	waitfor.Events(ctx, policy, func() int {
		return len(tracker.PageViews(sc.ProductCode))
	})

	for _, event := range tracker.PageViews(sc.ProductCode) {
		if applyPriceInfo(&rctx, event.Payload) {
			return rctx
		}
	}
	for _, event := range tracker.EventsByProduct(models.KindProductMinidetail, sc.ProductCode) {
		if applyPriceInfo(&rctx, event.Payload) {
			return rctx
		}
	}

	r.logger.WarnwCtx(ctx, "No price info captured", "product_code", sc.ProductCode)
	return rctx
}

// applyPriceInfo reads origin/promotion/coupon price from a payload: top
// level first, then decoded_gokey.params. Returns whether anything was
// found. A present-but-null coupon price resolves to the empty string.
func applyPriceInfo(rctx *models.RuntimeContext, payload map[string]interface{}) bool {
	found := false

	read := func(source map[string]interface{}, key string, dst *string, allowEmpty bool) {
		if *dst != "" {
			return
		}
		v, ok := source[key]
		if !ok {
			return
		}
		if v == nil {
			if allowEmpty {
				found = true
			}
			return
		}
		if s := priceString(v); s != "" || allowEmpty {
			*dst = s
			found = true
		}
	}

	read(payload, "origin_price", &rctx.OriginPrice, false)
	read(payload, "promotion_price", &rctx.PromotionPrice, false)
	read(payload, "coupon_price", &rctx.CouponPrice, true)

	if gk, ok := payload["decoded_gokey"].(map[string]interface{}); ok {
		if params, ok := gk["params"].(map[string]interface{}); ok {
			read(params, "origin_price", &rctx.OriginPrice, false)
			read(params, "promotion_price", &rctx.PromotionPrice, false)
			read(params, "coupon_price", &rctx.CouponPrice, true)
		}
	}

	return found
}

func priceString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func resolvedSpm(resolved []expect.FieldSpec) string {
	for _, spec := range resolved {
		if spec.Field == "spm" && spec.Kind == expect.SpecLiteral && spec.Value != "" {
			return spec.Value
		}
	}
	return ""
}

func (r *Runner) failureScreenshot(session *browser.Session) {
	if !r.cfg.Browser.Screenshots {
		return
	}
	if path, err := session.Screenshot(r.cfg.Artifacts.Dir, "failure"); err == nil {
		r.logger.Infow("Saved failure screenshot", "path", path)
	}
}
