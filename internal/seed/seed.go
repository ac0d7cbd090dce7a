// Package seed loads the embedded bootstrap catalogs: default product types,
// demo vendors, and the source catalog. Seeding is idempotent and safe to
// run on every startup.
package seed

import (
	"context"
	"embed"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/manuid/manuid/internal/vendor"
)

//go:embed data/*.yaml
var dataFS embed.FS

// catalogParserVersion tags seeded SourceRecords.
const catalogParserVersion = "catalog"

type productTypeSpec struct {
	Slug         string   `yaml:"slug"`
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	Keywords     []string `yaml:"keywords"`
	Pharmacopeia []string `yaml:"pharmacopeia"`
}

type contactSpec struct {
	Type  string `yaml:"type"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	Phone string `yaml:"phone"`
}

type vendorSpec struct {
	Name               string              `yaml:"name"`
	CompanyType        string              `yaml:"company_type"`
	Website            string              `yaml:"website"`
	HQCountry          string              `yaml:"hq_country"`
	Certifications     []string            `yaml:"certifications"`
	Compliance         map[string][]string `yaml:"compliance"`
	RegionsServed      []string            `yaml:"regions_served"`
	ConfidenceScore    float64             `yaml:"confidence_score"`
	Status             string              `yaml:"status"`
	VerificationState  string              `yaml:"verification_state"`
	VerificationSource string              `yaml:"verification_source"`
	Contacts           []contactSpec       `yaml:"contacts"`
	ProductTypeSlugs   []string            `yaml:"product_type_slugs"`
}

// Source is one source-catalog entry.
type Source struct {
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
}

func loadYAML(name string, out any) error {
	raw, err := dataFS.ReadFile("data/" + name)
	if err != nil {
		return eris.Wrapf(err, "seed: read %s", name)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return eris.Wrapf(err, "seed: parse %s", name)
	}
	return nil
}

// Catalog returns the embedded source catalog.
func Catalog() ([]Source, error) {
	var sources []Source
	if err := loadYAML("source_catalog.yaml", &sources); err != nil {
		return nil, err
	}
	return sources, nil
}

// Run seeds product types, demo vendors, and the source catalog. Existing
// rows are left untouched.
func Run(ctx context.Context, store vendor.Store) error {
	if err := seedProductTypes(ctx, store); err != nil {
		return err
	}
	if err := seedVendors(ctx, store); err != nil {
		return err
	}
	return seedSourceCatalog(ctx, store)
}

func seedProductTypes(ctx context.Context, store vendor.Store) error {
	existing, err := store.ListProductTypes(ctx, "", "", 1)
	if err != nil {
		return eris.Wrap(err, "seed: check product types")
	}
	if len(existing) > 0 {
		return nil
	}

	var specs []productTypeSpec
	if err := loadYAML("product_types.yaml", &specs); err != nil {
		return err
	}
	for _, spec := range specs {
		pt := &vendor.ProductType{
			Slug:         spec.Slug,
			Name:         spec.Name,
			Description:  spec.Description,
			Keywords:     spec.Keywords,
			Pharmacopeia: spec.Pharmacopeia,
		}
		if err := store.CreateProductType(ctx, pt); err != nil {
			return eris.Wrapf(err, "seed: product type %s", spec.Slug)
		}
	}
	zap.L().Info("seed: product types loaded", zap.Int("count", len(specs)))
	return nil
}

func seedVendors(ctx context.Context, store vendor.Store) error {
	var specs []vendorSpec
	if err := loadYAML("vendors.yaml", &specs); err != nil {
		return err
	}

	now := time.Now().UTC()
	created := 0
	for _, spec := range specs {
		existing, err := store.FindVendorByName(ctx, spec.Name)
		if err != nil {
			return eris.Wrapf(err, "seed: look up vendor %s", spec.Name)
		}
		if existing != nil {
			continue
		}

		rec := &vendor.Record{
			Name:               spec.Name,
			Website:            spec.Website,
			HQCountry:          spec.HQCountry,
			VendorType:         vendorType(spec.CompanyType),
			Status:             vendorStatus(spec.Status),
			Certifications:     spec.Certifications,
			Compliance:         spec.Compliance,
			RegionsServed:      spec.RegionsServed,
			ConfidenceScore:    spec.ConfidenceScore,
			VerificationState:  verificationState(spec.VerificationState),
			LastVerifiedAt:     &now,
			VerificationSource: spec.VerificationSource,
		}
		if err := store.CreateVendor(ctx, rec); err != nil {
			return eris.Wrapf(err, "seed: vendor %s", spec.Name)
		}
		created++

		for _, c := range spec.Contacts {
			contact := &vendor.Contact{
				VendorID:    rec.ID,
				ContactType: contactType(c.Type),
				Name:        c.Name,
				Email:       c.Email,
				Phone:       c.Phone,
			}
			if err := store.CreateContact(ctx, contact); err != nil {
				return eris.Wrapf(err, "seed: contact for %s", spec.Name)
			}
		}

		for _, slug := range spec.ProductTypeSlugs {
			pt, err := store.GetProductTypeBySlug(ctx, slug)
			if err != nil {
				return err
			}
			if pt == nil {
				continue
			}
			link := &vendor.ProductLink{
				ProductTypeID: pt.ID,
				VendorID:      rec.ID,
				Role:          vendor.RolePrimaryManufacturer,
				Notes:         "Seed data",
			}
			if err := store.CreateProductLink(ctx, link); err != nil {
				return eris.Wrapf(err, "seed: link %s for %s", slug, spec.Name)
			}
		}
	}
	if created > 0 {
		zap.L().Info("seed: demo vendors loaded", zap.Int("count", created))
	}
	return nil
}

func seedSourceCatalog(ctx context.Context, store vendor.Store) error {
	sources, err := Catalog()
	if err != nil {
		return err
	}

	existing, err := store.ListSourceURLs(ctx)
	if err != nil {
		return eris.Wrap(err, "seed: list source urls")
	}
	known := make(map[string]bool, len(existing))
	for _, u := range existing {
		known[u] = true
	}

	for _, src := range sources {
		if src.URL == "" || known[src.URL] {
			continue
		}
		name := src.Name
		if name == "" {
			name = "Catalog Source"
		}
		rec := &vendor.SourceRecord{
			SourceName:    name,
			SourceURL:     src.URL,
			ParserVersion: catalogParserVersion,
		}
		if err := store.CreateSourceRecord(ctx, rec); err != nil {
			return eris.Wrapf(err, "seed: source %s", src.URL)
		}
	}
	return nil
}

func vendorType(s string) vendor.Type {
	if s == "" {
		return vendor.TypeBoth
	}
	return vendor.Type(s)
}

func vendorStatus(s string) vendor.Status {
	if s == "" {
		return vendor.StatusActive
	}
	return vendor.Status(s)
}

func verificationState(s string) vendor.VerificationState {
	if s == "" {
		return vendor.VerificationUnverified
	}
	return vendor.VerificationState(s)
}

func contactType(s string) vendor.ContactType {
	if s == "" {
		return vendor.ContactGeneral
	}
	return vendor.ContactType(s)
}
