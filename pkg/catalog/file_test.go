package catalog_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subkit/subkit/pkg/catalog"
	"github.com/subkit/subkit/pkg/period"
)

const validCatalogYAML = `
features:
  - name: API Calls
    resettable_period: 1
    resettable_interval: month
  - slug: sso
    name: Single Sign-On
plans:
  - name: Basic
    price:
      amount: 0
      currency: USD
    invoice_period: 1
    invoice_interval: month
    features:
      - feature: api-calls
        value: "100"
  - name: Pro
    price:
      amount: 1999
      currency: USD
    trial_period: 7
    trial_interval: day
    invoice_interval: month
    grace_period: 3
    grace_interval: day
    features:
      - feature: api-calls
        value: "1000"
      - feature: sso
        value: "Y"
`

func TestParse(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("valid document", func(t *testing.T) {
		t.Parallel()

		cat, err := catalog.Parse([]byte(validCatalogYAML))
		require.NoError(t, err)

		f, err := cat.ResolveFeature(ctx, catalog.FeatureBySlug("api-calls"))
		require.NoError(t, err)
		assert.Equal(t, "API Calls", f.Name, "slug defaults to the slugified name")
		assert.True(t, f.IsResettable())
		assert.Equal(t, period.Month, f.ResettableInterval)

		pro, err := cat.ResolvePlan(ctx, catalog.PlanBySlug("pro"))
		require.NoError(t, err)
		assert.True(t, pro.Active)
		assert.True(t, pro.HasTrial())
		assert.True(t, pro.HasGrace())
		assert.EqualValues(t, 1999, pro.Price.Amount)
		require.Len(t, pro.Features, 2)
		assert.Equal(t, f.ID, pro.Features[0].FeatureID, "plan features link by slug")

		value, ok := pro.FeatureValueBySlug("sso")
		assert.True(t, ok)
		assert.Equal(t, "Y", value)

		basic, err := cat.ResolvePlan(ctx, catalog.PlanBySlug("basic"))
		require.NoError(t, err)
		assert.True(t, basic.IsFree())
	})

	t.Run("defaults invoice period to one", func(t *testing.T) {
		t.Parallel()

		cat, err := catalog.Parse([]byte(`
plans:
  - name: Solo
    invoice_interval: year
`))
		require.NoError(t, err)

		p, err := cat.ResolvePlan(ctx, catalog.PlanBySlug("solo"))
		require.NoError(t, err)
		assert.Equal(t, 1, p.InvoicePeriod)
		assert.Equal(t, period.Year, p.InvoiceInterval)
	})

	t.Run("pinned ids survive", func(t *testing.T) {
		t.Parallel()

		cat, err := catalog.Parse([]byte(`
features:
  - id: 6ba7b810-9dad-11d1-80b4-00c04fd430c8
    name: Seats
plans:
  - id: 6ba7b811-9dad-11d1-80b4-00c04fd430c8
    name: Team
    invoice_interval: month
`))
		require.NoError(t, err)

		f, err := cat.ResolveFeature(ctx, catalog.FeatureBySlug("seats"))
		require.NoError(t, err)
		assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", f.ID.String())
	})

	t.Run("unknown feature reference", func(t *testing.T) {
		t.Parallel()

		_, err := catalog.Parse([]byte(`
plans:
  - name: Broken
    invoice_interval: month
    features:
      - feature: ghost
        value: "1"
`))
		require.ErrorIs(t, err, catalog.ErrInvalidCatalogFile)
		assert.Contains(t, err.Error(), "ghost")
	})

	t.Run("bad intervals", func(t *testing.T) {
		t.Parallel()

		for name, doc := range map[string]string{
			"invoice": `
plans:
  - name: P
    invoice_interval: fortnight
`,
			"trial": `
plans:
  - name: P
    trial_period: 7
    trial_interval: sprint
    invoice_interval: month
`,
			"resettable": `
features:
  - name: F
    resettable_period: 1
    resettable_interval: epoch
`,
		} {
			t.Run(name, func(t *testing.T) {
				t.Parallel()

				_, err := catalog.Parse([]byte(doc))
				require.ErrorIs(t, err, catalog.ErrInvalidCatalogFile)
				require.ErrorIs(t, err, period.ErrInvalidInterval)
			})
		}
	})

	t.Run("duplicate slugs", func(t *testing.T) {
		t.Parallel()

		_, err := catalog.Parse([]byte(`
features:
  - name: Seats
  - slug: seats
    name: Other Seats
`))
		require.ErrorIs(t, err, catalog.ErrInvalidCatalogFile)

		_, err = catalog.Parse([]byte(`
plans:
  - name: Pro
    invoice_interval: month
  - slug: pro
    name: Pro Again
    invoice_interval: month
`))
		require.ErrorIs(t, err, catalog.ErrInvalidCatalogFile)
	})

	t.Run("nameless entries rejected", func(t *testing.T) {
		t.Parallel()

		_, err := catalog.Parse([]byte("features:\n  - description: mystery\n"))
		require.ErrorIs(t, err, catalog.ErrInvalidCatalogFile)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		t.Parallel()

		_, err := catalog.Parse([]byte("plans: [broken"))
		require.ErrorIs(t, err, catalog.ErrInvalidCatalogFile)
	})
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	t.Run("reads catalog from disk", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "catalog.yml")
		require.NoError(t, os.WriteFile(path, []byte(validCatalogYAML), 0o644))

		cat, err := catalog.LoadFile(path)
		require.NoError(t, err)

		_, err = cat.ResolvePlan(context.Background(), catalog.PlanBySlug("pro"))
		require.NoError(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := catalog.LoadFile(filepath.Join(t.TempDir(), "nope.yml"))
		require.ErrorIs(t, err, catalog.ErrInvalidCatalogFile)
	})
}
