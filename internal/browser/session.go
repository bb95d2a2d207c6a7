package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"trackcheck/internal/config"
	"trackcheck/internal/logger"
	"trackcheck/pkg/errors"
)

// Session owns one browser lifetime: the playwright driver, a Chromium
// instance, a context and the initial page. One session serves one
// scenario; cross-scenario reuse would leak tracking state between runs.
type Session struct {
	Playwright *playwright.Playwright
	Browser    playwright.Browser
	Context    playwright.BrowserContext
	Page       playwright.Page

	cfg    config.BrowserConfig
	logger logger.Logger
}

func NewSession(cfg config.BrowserConfig, log logger.Logger) *Session {
	return &Session{cfg: cfg, logger: log}
}

// Start installs the driver if needed, launches Chromium and opens the
// first page.
func (s *Session) Start() error {
	if os.Getenv("PLAYWRIGHT_PREINSTALLED") != "1" {
		if err := playwright.Install(); err != nil {
			return errors.ErrSessionFailed.
				WithMessage("could not install playwright browsers").
				WithCause(err)
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		// Driver/image version drift: install explicitly and retry once.
		_ = playwright.Install()
		pw, err = playwright.Run()
		if err != nil {
			return errors.ErrSessionFailed.
				WithMessage("could not start playwright").
				WithCause(err)
		}
	}
	s.Playwright = pw

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(s.cfg.Headless),
		SlowMo:   playwright.Float(float64(s.cfg.SlowMoMS)),
	})
	if err != nil {
		return errors.ErrSessionFailed.
			WithMessage("could not launch browser").
			WithCause(err)
	}
	s.Browser = browser

	context, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  1280,
			Height: 720,
		},
	})
	if err != nil {
		return errors.ErrSessionFailed.
			WithMessage("could not create browser context").
			WithCause(err)
	}
	s.Context = context

	page, err := context.NewPage()
	if err != nil {
		return errors.ErrSessionFailed.
			WithMessage("could not create page").
			WithCause(err)
	}
	s.Page = page
	page.SetDefaultTimeout(float64(s.cfg.Timeout.Milliseconds()))

	s.logger.Infow("Browser session started",
		"headless", s.cfg.Headless,
		"base_url", s.cfg.BaseURL,
	)
	return nil
}

// NavigateTo opens a path relative to the configured base URL, or an
// absolute URL as-is, and waits for the load state.
func (s *Session) NavigateTo(target string) error {
	url := target
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		url = s.cfg.BaseURL + target
	}

	if _, err := s.Page.Goto(url); err != nil {
		return errors.ErrSessionFailed.
			WithMessage("navigation to %s failed", url).
			WithCause(err)
	}

	if err := s.Page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State: playwright.LoadStateNetworkidle,
	}); err != nil {
		s.logger.Warnw("Network never settled", "url", url, "error", err)
	}
	return nil
}

// Screenshot captures the current page into dir, named after the label.
func (s *Session) Screenshot(dir, label string) (string, error) {
	if s.Page == nil {
		return "", errors.ErrSessionFailed.WithMessage("no page to screenshot")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, errors.ErrInternal)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%d.png", label, time.Now().Unix()))
	if _, err := s.Page.Screenshot(playwright.PageScreenshotOptions{
		Path: playwright.String(path),
	}); err != nil {
		return "", errors.ErrSessionFailed.
			WithMessage("screenshot failed").
			WithCause(err)
	}
	return path, nil
}

// Close tears the session down in reverse order. Safe on a partially
// started session.
func (s *Session) Close() {
	if s.Page != nil {
		s.Page.Close()
	}
	if s.Context != nil {
		s.Context.Close()
	}
	if s.Browser != nil {
		s.Browser.Close()
	}
	if s.Playwright != nil {
		s.Playwright.Stop()
	}
	s.logger.Infow("Browser session closed")
}
