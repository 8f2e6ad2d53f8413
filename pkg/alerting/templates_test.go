package alerting_test

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finzap/finzap/pkg/alerting"
)

func TestTemplates_RenderFillsPlaceholders(t *testing.T) {
	templates := alerting.Templates{
		alerting.Band70: {"{categoria}: {gasto} de {limite} ({percentual})"},
	}
	rng := rand.New(rand.NewSource(1))

	got := templates.Render(rng, alerting.Band70, "alimentação", dec(t, "750"), dec(t, "1000"))
	assert.Equal(t, "alimentação: R$ 750,00 de R$ 1.000,00 (75%)", got)
}

func TestTemplates_RenderDeterministicWithSeed(t *testing.T) {
	templates := alerting.DefaultTemplates()

	first := templates.Render(rand.New(rand.NewSource(42)), alerting.Band90, "lazer", dec(t, "180"), dec(t, "200"))
	second := templates.Render(rand.New(rand.NewSource(42)), alerting.Band90, "lazer", dec(t, "180"), dec(t, "200"))

	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}

func TestDefaultTemplates_CoverAllBands(t *testing.T) {
	templates := alerting.DefaultTemplates()
	for _, band := range []alerting.Band{
		alerting.Band50, alerting.Band70, alerting.Band90, alerting.Band100, alerting.BandOver,
	} {
		assert.NotEmpty(t, templates[band], "band %s has no phrasings", band)
	}
}

func TestLoadTemplates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	content := "\"70\":\n  - \"custom {categoria}\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	templates, err := alerting.LoadTemplates(path)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	got := templates.Render(rng, alerting.Band70, "food", dec(t, "70"), dec(t, "100"))
	assert.Equal(t, "custom food", got)

	// Bands not present in the file keep their defaults.
	assert.NotEmpty(t, templates[alerting.Band50])
}

func TestLoadTemplates_MissingFile(t *testing.T) {
	_, err := alerting.LoadTemplates(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
