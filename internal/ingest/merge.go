package ingest

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/manuid/manuid/internal/enrich"
	"github.com/manuid/manuid/internal/extract"
	"github.com/manuid/manuid/internal/taxonomy"
	"github.com/manuid/manuid/internal/vendor"
)

// newVendorDescription documents taxonomy entries minted from user queries.
const newVendorDescription = "User-created product type from ingestion/search query"

// linkNotes marks product links written by this pipeline.
const linkNotes = "Added by ingestion pipeline"

// upsertProductType resolves the query against the catalog, falling back to
// an existing entry with the derived slug, and mints a new entry otherwise.
func upsertProductType(ctx context.Context, store vendor.Store, query string) (*vendor.ProductType, error) {
	catalog, err := store.ListProductTypes(ctx, "", "", 1000)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: load catalog")
	}
	if res := taxonomy.Normalize(query, catalog); res.ProductType != nil {
		return res.ProductType, nil
	}

	slug := taxonomy.Slugify(query)
	existing, err := store.GetProductTypeBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	pt := &vendor.ProductType{
		Slug:         slug,
		Name:         taxonomy.TitleName(query),
		Description:  newVendorDescription,
		Keywords:     []string{strings.ToLower(strings.TrimSpace(query))},
		Pharmacopeia: []string{},
	}
	if err := store.CreateProductType(ctx, pt); err != nil {
		return nil, err
	}
	return pt, nil
}

// getOrCreateVendor looks a candidate up by exact website then exact name,
// creating a record with defaults when neither matches. It applies the
// fill-empty policy to website and country and maintains the single general
// contact, reporting whether the record was created or changed.
func getOrCreateVendor(ctx context.Context, store vendor.Store, c extract.Candidate) (*vendor.Record, bool, bool, error) {
	var rec *vendor.Record
	var err error

	if c.Website != "" {
		rec, err = store.FindVendorByWebsite(ctx, c.Website)
		if err != nil {
			return nil, false, false, err
		}
	}
	if rec == nil {
		rec, err = store.FindVendorByName(ctx, c.Name)
		if err != nil {
			return nil, false, false, err
		}
	}

	created := false
	if rec == nil {
		rec = &vendor.Record{
			Name:              c.Name,
			Website:           c.Website,
			HQCountry:         c.Country,
			VendorType:        vendor.TypeBoth,
			Status:            vendor.StatusActive,
			Certifications:    []string{},
			Compliance:        map[string][]string{vendor.CompliancePharmacopeia: {}},
			RegionsServed:     []string{},
			ConfidenceScore:   0.4,
			VerificationState: vendor.VerificationUnverified,
		}
		if err := store.CreateVendor(ctx, rec); err != nil {
			return nil, false, false, err
		}
		created = true
	}

	changed := false
	if c.Website != "" && rec.Website == "" {
		rec.Website = c.Website
		changed = true
	}
	if c.Country != "" && rec.HQCountry == "" {
		rec.HQCountry = c.Country
		changed = true
	}

	contactChanged, err := upsertGeneralContact(ctx, store, rec.ID, c)
	if err != nil {
		return nil, false, false, err
	}
	return rec, created, changed || contactChanged, nil
}

// upsertGeneralContact keeps exactly one general contact per vendor in this
// flow: created when absent and details were extracted, otherwise only its
// empty email/phone fields are filled.
func upsertGeneralContact(ctx context.Context, store vendor.Store, vendorID int64, c extract.Candidate) (bool, error) {
	contacts, err := store.ListContacts(ctx, vendorID)
	if err != nil {
		return false, err
	}

	if len(contacts) == 0 {
		if c.Email == "" && c.Phone == "" {
			return false, nil
		}
		contact := &vendor.Contact{
			VendorID:    vendorID,
			ContactType: vendor.ContactGeneral,
			Email:       c.Email,
			Phone:       c.Phone,
		}
		if err := store.CreateContact(ctx, contact); err != nil {
			return false, err
		}
		return true, nil
	}

	primary := contacts[0]
	changed := false
	if c.Email != "" && primary.Email == "" {
		primary.Email = c.Email
		changed = true
	}
	if c.Phone != "" && primary.Phone == "" {
		primary.Phone = c.Phone
		changed = true
	}
	if changed {
		if err := store.UpdateContact(ctx, &primary); err != nil {
			return false, err
		}
	}
	return changed, nil
}

// upsertProductLink inserts the link only when absent; an existing link and
// its role are left untouched.
func upsertProductLink(ctx context.Context, store vendor.Store, productTypeID, vendorID int64, role vendor.LinkRole) error {
	existing, err := store.GetProductLink(ctx, productTypeID, vendorID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	return store.CreateProductLink(ctx, &vendor.ProductLink{
		ProductTypeID: productTypeID,
		VendorID:      vendorID,
		Role:          role,
		Notes:         linkNotes,
	})
}

// writeEvidence appends one row per non-empty extracted field.
func writeEvidence(ctx context.Context, store vendor.Store, vendorID, sourceID int64, c extract.Candidate, confidence float64) error {
	fields := []struct {
		name  string
		value string
	}{
		{"name", c.Name},
		{"website", c.Website},
		{"email", c.Email},
		{"phone", c.Phone},
		{"country", c.Country},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if err := store.CreateEvidence(ctx, &vendor.Evidence{
			VendorID:       vendorID,
			SourceRecordID: sourceID,
			FieldName:      f.name,
			FieldValue:     f.value,
			Confidence:     confidence,
		}); err != nil {
			return err
		}
	}
	return nil
}

// mergeCandidate runs the full per-candidate merge and reports whether the
// vendor was created or changed.
func (p *Pipeline) mergeCandidate(
	ctx context.Context,
	store vendor.Store,
	c extract.Candidate,
	productTypeID int64,
	role vendor.LinkRole,
	source *vendor.SourceRecord,
	sourceDomain string,
	finalURL string,
) (bool, bool, error) {
	rec, created, changed, err := getOrCreateVendor(ctx, store, c)
	if err != nil {
		return false, false, err
	}
	if err := upsertProductLink(ctx, store, productTypeID, rec.ID, role); err != nil {
		return false, false, err
	}

	confidence := AutoConfidence(c, sourceDomain)
	if confidence > rec.ConfidenceScore {
		rec.ConfidenceScore = confidence
	}
	retrieved := source.RetrievedAt
	rec.LastVerifiedAt = &retrieved
	rec.VerificationSource = finalURL
	// Re-ingestion demotes even human-verified records back to auto-verified.
	rec.VerificationState = vendor.VerificationAutoVerified

	enrich.Apply(rec, p.enricher.Enrich(ctx, c.RawText))

	if err := store.UpdateVendor(ctx, rec); err != nil {
		return false, false, err
	}
	if err := writeEvidence(ctx, store, rec.ID, source.ID, c, confidence); err != nil {
		return false, false, err
	}
	return created, changed, nil
}
