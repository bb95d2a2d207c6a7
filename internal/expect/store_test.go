package expect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackcheck/pkg/errors"
)

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		expected string
	}{
		{name: "spaces to underscores", title: "Best Sellers", expected: "Best_Sellers"},
		{name: "apostrophe dropped", title: "Today's Deals", expected: "Todays_Deals"},
		{name: "hostile characters replaced", title: `A/B:C*D?E"F<G>H|I`, expected: "A_B_C_D_E_F_G_H_I"},
		{name: "surrounding whitespace trimmed", title: "  Home Main  ", expected: "Home_Main"},
		{name: "korean preserved", title: "오늘의 특가", expected: "오늘의_특가"},
		{name: "empty becomes unknown", title: "   ", expected: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeTitle(tt.title))
		})
	}
}

func TestStoreLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "HOME"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "HOME", "Best_Sellers.json"),
		[]byte(`{"module_exposure": {"spm": "a.b.home.bestsellers", "pid": "mandatory"}}`),
		0o644,
	))

	store := NewStore(dir)

	t.Run("load existing", func(t *testing.T) {
		template, err := store.Load("HOME", "Best Sellers")
		require.NoError(t, err)

		assert.Equal(t, "HOME", template.Area)
		assert.Equal(t, "Best Sellers", template.Title)

		section, ok := template.Section("module_exposure")
		require.True(t, ok)
		assert.Len(t, section.Fields, 2)
	})

	t.Run("missing module", func(t *testing.T) {
		_, err := store.Load("HOME", "No Such Module")
		assert.True(t, errors.IsConfigNotFound(err))
	})

	t.Run("missing area", func(t *testing.T) {
		_, err := store.Load("SRP", "Best Sellers")
		assert.True(t, errors.IsConfigNotFound(err))
	})
}

func TestStoreListing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "HOME"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "SRP"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "HOME", "b.json"), []byte(`{}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "HOME", "a.json"), []byte(`{}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "HOME", "notes.txt"), []byte(``), 0o644))

	store := NewStore(dir)

	areas, err := store.Areas()
	require.NoError(t, err)
	assert.Equal(t, []string{"HOME", "SRP"}, areas)

	names, err := store.Templates("HOME")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)
}

func TestStoreWriteRaw(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	require.NoError(t, store.WriteRaw("SRP", "Imported", []byte(`{"pv": {}}`)))

	data, err := store.ReadRaw("SRP", "Imported")
	require.NoError(t, err)
	assert.JSONEq(t, `{"pv": {}}`, string(data))
}
