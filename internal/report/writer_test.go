package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackcheck/internal/logger"
	"trackcheck/pkg/models"
)

func testEvents() []models.CapturedEvent {
	return []models.CapturedEvent{
		{
			Kind:      models.KindModuleExposure,
			URL:       "https://aplus.gmarket.co.kr/module.exposure.event",
			Method:    "POST",
			Timestamp: time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC),
			Spm:       "a.b.home.bestsellers",
			Payload:   map[string]interface{}{"spm": "a.b.home.bestsellers"},
		},
		{
			Kind:        models.KindProductClick,
			URL:         "https://aplus.gmarket.co.kr/product.click.event",
			Method:      "POST",
			Timestamp:   time.Date(2026, 8, 27, 10, 0, 1, 0, time.UTC),
			ProductCode: "123",
			Payload:     map[string]interface{}{"goodscode": "123"},
		},
	}
}

func TestWriteKind(t *testing.T) {
	dir := t.TempDir()
	writer := NewWriter(dir, logger.NopLogger())

	t.Run("writes dump with naming scheme", func(t *testing.T) {
		path, err := writer.WriteKind(models.KindProductClick, "123", testEvents()[1:])
		require.NoError(t, err)

		base := filepath.Base(path)
		assert.True(t, strings.HasPrefix(base, "tracking_product_click_123_"), base)
		assert.True(t, strings.HasSuffix(base, ".json"))

		data, err := os.ReadFile(path)
		require.NoError(t, err)

		var dump kindDump
		require.NoError(t, json.Unmarshal(data, &dump))
		assert.Equal(t, models.KindProductClick, dump.Kind)
		assert.Equal(t, 1, dump.Count)
		require.Len(t, dump.Events, 1)
		assert.Equal(t, "123", dump.Events[0].ProductCode)
	})

	t.Run("empty product code becomes unknown", func(t *testing.T) {
		path, err := writer.WriteKind(models.KindPV, "", nil)
		require.NoError(t, err)
		assert.Contains(t, filepath.Base(path), "tracking_pv_unknown_")
	})

	t.Run("pdp click with no events skipped", func(t *testing.T) {
		path, err := writer.WriteKind(models.KindPdpBuynowClick, "123", nil)
		require.NoError(t, err)
		assert.Empty(t, path)
	})

	t.Run("pdp click with events written", func(t *testing.T) {
		events := []models.CapturedEvent{{Kind: models.KindPdpBuynowClick, Method: "POST"}}
		path, err := writer.WriteKind(models.KindPdpBuynowClick, "123", events)
		require.NoError(t, err)
		assert.NotEmpty(t, path)
	})
}

func TestWriteAll(t *testing.T) {
	dir := t.TempDir()
	writer := NewWriter(dir, logger.NopLogger())

	path, err := writer.WriteAll("Today's Deals", testEvents())
	require.NoError(t, err)
	assert.Equal(t, "tracking_all_Todays_Deals.json", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var dump fullDump
	require.NoError(t, json.Unmarshal(data, &dump))
	assert.Equal(t, "Today's Deals", dump.Module)
	assert.Equal(t, 2, dump.Count)
	require.Len(t, dump.ByKind[models.KindModuleExposure], 1)
	require.Len(t, dump.ByKind[models.KindProductClick], 1)
	assert.Equal(t, "a.b.home.bestsellers", dump.ByKind[models.KindModuleExposure][0].Spm)
}

func TestSummarize(t *testing.T) {
	verdicts := []models.Verdict{
		{EventKind: models.KindModuleExposure, Passed: true},
		{EventKind: models.KindProductClick, Passed: false, Mismatches: []models.Mismatch{models.MissingEventMismatch()}},
		{EventKind: models.KindPdpPV, Skipped: true},
	}

	summary := Summarize("TC-9", verdicts)

	assert.False(t, summary.Passed)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Skipped)

	t.Run("skipped only still passes", func(t *testing.T) {
		summary := Summarize("TC-10", []models.Verdict{{Skipped: true}})
		assert.True(t, summary.Passed)
	})

	t.Run("no verdicts pass vacuously", func(t *testing.T) {
		assert.True(t, Summarize("TC-11", nil).Passed)
	})
}
