package catalog

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/subkit/subkit/pkg/period"
	"github.com/subkit/subkit/pkg/slug"
)

// catalogFile is the YAML document shape for a plan catalog.
type catalogFile struct {
	Features []featureEntry `yaml:"features"`
	Plans    []planEntry    `yaml:"plans"`
}

type featureEntry struct {
	ID                 string `yaml:"id"`
	Slug               string `yaml:"slug"`
	Name               string `yaml:"name"`
	Description        string `yaml:"description"`
	ResettablePeriod   int    `yaml:"resettable_period"`
	ResettableInterval string `yaml:"resettable_interval"`
	SortOrder          int    `yaml:"sort_order"`
}

type planEntry struct {
	ID              string             `yaml:"id"`
	Slug            string             `yaml:"slug"`
	Name            string             `yaml:"name"`
	Description     string             `yaml:"description"`
	Active          *bool              `yaml:"active"`
	Price           Money              `yaml:"price"`
	SignupFee       Money              `yaml:"signup_fee"`
	TrialPeriod     int                `yaml:"trial_period"`
	TrialInterval   string             `yaml:"trial_interval"`
	InvoicePeriod   int                `yaml:"invoice_period"`
	InvoiceInterval string             `yaml:"invoice_interval"`
	GracePeriod     int                `yaml:"grace_period"`
	GraceInterval   string             `yaml:"grace_interval"`
	SortOrder       int                `yaml:"sort_order"`
	Features        []planFeatureEntry `yaml:"features"`
}

type planFeatureEntry struct {
	Feature string `yaml:"feature"` // feature slug
	Value   string `yaml:"value"`
}

// LoadFile reads a YAML plan catalog from disk and builds an in-memory
// Catalog from it.
func LoadFile(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrInvalidCatalogFile, err)
	}
	return Parse(data)
}

// Parse builds an in-memory Catalog from a YAML document. Features and
// plans get fresh IDs unless the document pins them, and slugs default
// to a slugified name. Plan features reference features by slug; an
// unknown reference fails the whole parse.
func Parse(data []byte) (Catalog, error) {
	var doc catalogFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Join(ErrInvalidCatalogFile, err)
	}

	now := time.Now().UTC()

	features := make([]Feature, 0, len(doc.Features))
	bySlug := make(map[string]Feature, len(doc.Features))
	for _, e := range doc.Features {
		f := Feature{
			Slug:             e.Slug,
			Name:             e.Name,
			Description:      e.Description,
			ResettablePeriod: e.ResettablePeriod,
			SortOrder:        e.SortOrder,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if f.Slug == "" {
			f.Slug = slug.Make(f.Name)
		}
		if f.Slug == "" {
			return nil, errors.Join(ErrInvalidCatalogFile, fmt.Errorf("feature without slug or name"))
		}

		f.ID = uuid.New()
		if e.ID != "" {
			id, err := uuid.Parse(e.ID)
			if err != nil {
				return nil, errors.Join(ErrInvalidCatalogFile, fmt.Errorf("feature %q: %w", f.Slug, err))
			}
			f.ID = id
		}

		if e.ResettablePeriod > 0 {
			iv, err := period.ParseInterval(e.ResettableInterval)
			if err != nil {
				return nil, errors.Join(ErrInvalidCatalogFile, fmt.Errorf("feature %q: %w", f.Slug, err))
			}
			f.ResettableInterval = iv
		}

		if _, dup := bySlug[f.Slug]; dup {
			return nil, errors.Join(ErrInvalidCatalogFile, fmt.Errorf("duplicate feature slug %q", f.Slug))
		}
		bySlug[f.Slug] = f
		features = append(features, f)
	}

	plans := make([]Plan, 0, len(doc.Plans))
	planSlugs := make(map[string]struct{}, len(doc.Plans))
	for _, e := range doc.Plans {
		p := Plan{
			Slug:          e.Slug,
			Name:          e.Name,
			Description:   e.Description,
			Active:        true,
			Price:         e.Price,
			SignupFee:     e.SignupFee,
			TrialPeriod:   e.TrialPeriod,
			InvoicePeriod: e.InvoicePeriod,
			GracePeriod:   e.GracePeriod,
			SortOrder:     e.SortOrder,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if e.Active != nil {
			p.Active = *e.Active
		}
		if p.Slug == "" {
			p.Slug = slug.Make(p.Name)
		}
		if p.Slug == "" {
			return nil, errors.Join(ErrInvalidCatalogFile, fmt.Errorf("plan without slug or name"))
		}

		p.ID = uuid.New()
		if e.ID != "" {
			id, err := uuid.Parse(e.ID)
			if err != nil {
				return nil, errors.Join(ErrInvalidCatalogFile, fmt.Errorf("plan %q: %w", p.Slug, err))
			}
			p.ID = id
		}

		iv, err := period.ParseInterval(e.InvoiceInterval)
		if err != nil {
			return nil, errors.Join(ErrInvalidCatalogFile, fmt.Errorf("plan %q invoice interval: %w", p.Slug, err))
		}
		p.InvoiceInterval = iv
		if p.InvoicePeriod <= 0 {
			p.InvoicePeriod = 1
		}

		if e.TrialPeriod > 0 {
			iv, err := period.ParseInterval(e.TrialInterval)
			if err != nil {
				return nil, errors.Join(ErrInvalidCatalogFile, fmt.Errorf("plan %q trial interval: %w", p.Slug, err))
			}
			p.TrialInterval = iv
		}
		if e.GracePeriod > 0 {
			iv, err := period.ParseInterval(e.GraceInterval)
			if err != nil {
				return nil, errors.Join(ErrInvalidCatalogFile, fmt.Errorf("plan %q grace interval: %w", p.Slug, err))
			}
			p.GraceInterval = iv
		}

		p.Features = make([]PlanFeature, 0, len(e.Features))
		for i, pf := range e.Features {
			f, ok := bySlug[pf.Feature]
			if !ok {
				return nil, errors.Join(ErrInvalidCatalogFile,
					fmt.Errorf("plan %q references unknown feature %q", p.Slug, pf.Feature))
			}
			p.Features = append(p.Features, PlanFeature{
				FeatureID: f.ID,
				Slug:      f.Slug,
				Value:     pf.Value,
				SortOrder: i,
			})
		}

		if _, dup := planSlugs[p.Slug]; dup {
			return nil, errors.Join(ErrInvalidCatalogFile, fmt.Errorf("duplicate plan slug %q", p.Slug))
		}
		planSlugs[p.Slug] = struct{}{}
		plans = append(plans, p)
	}

	return NewInMemCatalog(plans, features), nil
}
