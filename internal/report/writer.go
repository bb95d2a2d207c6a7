package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"trackcheck/internal/expect"
	"trackcheck/internal/logger"
	"trackcheck/pkg/errors"
	"trackcheck/pkg/metrics"
	"trackcheck/pkg/models"
)

// Writer persists capture dumps as JSON artifacts next to the test run, one
// file per validated event kind plus one full dump for the module.
type Writer struct {
	dir    string
	logger logger.Logger
}

func NewWriter(dir string, log logger.Logger) *Writer {
	return &Writer{dir: dir, logger: log}
}

type kindDump struct {
	Kind        models.EventKind       `json:"event_kind"`
	ProductCode string                 `json:"product_code,omitempty"`
	Count       int                    `json:"count"`
	Events      []models.CapturedEvent `json:"events"`
}

type fullDump struct {
	Module      string                                  `json:"module"`
	GeneratedAt time.Time                               `json:"generated_at"`
	Count       int                                     `json:"count"`
	ByKind      map[models.EventKind][]models.CapturedEvent `json:"events_by_kind"`
}

// WriteKind writes the per-kind artifact tracking_{kind}_{code}_{ts}.json.
// PDP click kinds write only when at least one event was captured: an empty
// dump for a click that was never performed is noise, but an empty dump for
// an exposure documents the absence. Returns the written path, "" when
// skipped.
func (w *Writer) WriteKind(kind models.EventKind, productCode string, events []models.CapturedEvent) (string, error) {
	if kind.IsPdpClick() && len(events) == 0 {
		return "", nil
	}

	code := productCode
	if code == "" {
		code = "unknown"
	}
	name := "tracking_" + kind.ConfigKey() + "_" + code + "_" + time.Now().Format("20060102_150405") + ".json"

	dump := kindDump{Kind: kind, ProductCode: productCode, Count: len(events), Events: events}
	path, err := w.write(name, dump)
	if err != nil {
		return "", err
	}

	w.logger.Infow("Wrote event dump", "kind", kind, "path", path, "events", len(events))
	return path, nil
}

// WriteAll writes the full capture dump tracking_all_{module}.json, grouped
// by kind with capture order preserved within each kind.
func (w *Writer) WriteAll(moduleTitle string, events []models.CapturedEvent) (string, error) {
	byKind := make(map[models.EventKind][]models.CapturedEvent)
	for _, event := range events {
		byKind[event.Kind] = append(byKind[event.Kind], event)
	}

	dump := fullDump{
		Module:      moduleTitle,
		GeneratedAt: time.Now(),
		Count:       len(events),
		ByKind:      byKind,
	}

	path, err := w.write("tracking_all_"+expect.SanitizeTitle(moduleTitle)+".json", dump)
	if err != nil {
		return "", err
	}

	w.logger.Infow("Wrote full dump", "module", moduleTitle, "path", path, "events", len(events))
	return path, nil
}

func (w *Writer) write(name string, document interface{}) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		metrics.ArtifactWritesTotal.WithLabelValues("error").Inc()
		return "", errors.Wrap(err, errors.ErrInternal)
	}

	data, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		metrics.ArtifactWritesTotal.WithLabelValues("error").Inc()
		return "", errors.Wrap(err, errors.ErrInternal)
	}

	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		metrics.ArtifactWritesTotal.WithLabelValues("error").Inc()
		return "", errors.Wrap(err, errors.ErrInternal)
	}

	metrics.ArtifactWritesTotal.WithLabelValues("ok").Inc()
	return path, nil
}
