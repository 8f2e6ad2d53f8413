package alerting

import (
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/finzap/finzap/pkg/money"
)

// Templates holds the user-facing phrasings for each band. Several phrasings
// per band keep repeated alerts from reading like a robot; the pick among
// them is uniform random and has no correctness impact.
//
// Placeholders: {categoria}, {gasto}, {limite}, {percentual}.
type Templates map[Band][]string

// DefaultTemplates returns the built-in Portuguese template set.
func DefaultTemplates() Templates {
	return Templates{
		Band50: {
			"Oi! Você já usou metade do seu limite de {categoria}: {gasto} de {limite}. Só pra você ficar de olho. 👀",
			"Passando pra avisar: seus gastos com {categoria} chegaram a {gasto}, cerca de {percentual} do limite de {limite}.",
		},
		Band70: {
			"Atenção: você já gastou {gasto} com {categoria}, {percentual} do seu limite de {limite}.",
			"Seus gastos com {categoria} estão em {gasto}. Faltam pouco menos de 30% para o limite de {limite}.",
		},
		Band90: {
			"⚠️ Quase lá: {categoria} já está em {gasto}, {percentual} do limite de {limite}. Vale segurar um pouco!",
			"⚠️ Alerta: você usou {percentual} do limite de {categoria} ({gasto} de {limite}).",
		},
		Band100: {
			"🚨 Você atingiu o limite de {categoria}: {gasto} de {limite}.",
			"🚨 Limite de {categoria} alcançado! Seus gastos chegaram a {gasto}, com limite de {limite}.",
		},
		BandOver: {
			"🔴 Limite estourado: {categoria} já está em {gasto}, acima do limite de {limite}.",
			"🔴 Seus gastos com {categoria} ({gasto}) passaram do limite de {limite}. Que tal revisar o orçamento?",
		},
	}
}

// LoadTemplates reads a template set from a YAML file, falling back to the
// defaults for any band the file does not define.
func LoadTemplates(path string) (Templates, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read templates file: %w", err)
	}

	var file map[string][]string
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse templates file: %w", err)
	}

	templates := DefaultTemplates()
	for name, phrasings := range file {
		if len(phrasings) == 0 {
			continue
		}
		templates[Band(name)] = phrasings
	}
	return templates, nil
}

// Render picks a phrasing for the band and fills in the placeholders.
func (t Templates) Render(rng *rand.Rand, band Band, category string, spend, limit decimal.Decimal) string {
	phrasings := t[band]
	if len(phrasings) == 0 {
		phrasings = DefaultTemplates()[band]
	}
	if len(phrasings) == 0 {
		return ""
	}

	text := phrasings[rng.Intn(len(phrasings))]

	pct := "-"
	if limit.Sign() > 0 {
		pct = spend.Mul(hundred).Div(limit).Round(0).String() + "%"
	}

	return strings.NewReplacer(
		"{categoria}", category,
		"{gasto}", money.FormatBRL(spend),
		"{limite}", money.FormatBRL(limit),
		"{percentual}", pct,
	).Replace(text)
}
