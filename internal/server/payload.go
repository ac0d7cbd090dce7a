package server

import (
	"time"

	"github.com/manuid/manuid/internal/vendor"
)

// contactPayload is the public shape of one vendor contact.
type contactPayload struct {
	Type     vendor.ContactType `json:"type"`
	Name     string             `json:"name,omitempty"`
	Email    string             `json:"email,omitempty"`
	Phone    string             `json:"phone,omitempty"`
	Whatsapp string             `json:"whatsapp,omitempty"`
	Telegram string             `json:"telegram,omitempty"`
}

// vendorPayload is the public shape of one vendor record. Score fields are
// only populated on search responses.
type vendorPayload struct {
	ID                 int64                    `json:"id"`
	Name               string                   `json:"name"`
	CompanyType        vendor.Type              `json:"company_type"`
	Website            string                   `json:"website"`
	HQCountry          string                   `json:"hq_country"`
	Certifications     []string                 `json:"certifications"`
	Compliance         map[string][]string      `json:"compliance"`
	RegionsServed      []string                 `json:"regions_served"`
	LeadTimeDays       *vendor.Range            `json:"lead_time_days_range"`
	MOQ                *vendor.Range            `json:"moq_range"`
	LastVerifiedAt     *time.Time               `json:"last_verified_at"`
	VerificationSource string                   `json:"verification_source"`
	Status             vendor.Status            `json:"status"`
	ConfidenceScore    float64                  `json:"confidence_score"`
	VerificationState  vendor.VerificationState `json:"verification_state"`
	Contacts           []contactPayload         `json:"contacts"`
	Score              *float64                 `json:"score,omitempty"`
	ScoreReasons       []string                 `json:"score_reasons,omitempty"`
}

func newVendorPayload(rec *vendor.Record, contacts []vendor.Contact) vendorPayload {
	cs := make([]contactPayload, 0, len(contacts))
	for _, c := range contacts {
		cs = append(cs, contactPayload{
			Type:     c.ContactType,
			Name:     c.Name,
			Email:    c.Email,
			Phone:    c.Phone,
			Whatsapp: c.Whatsapp,
			Telegram: c.Telegram,
		})
	}

	p := vendorPayload{
		ID:                 rec.ID,
		Name:               rec.Name,
		CompanyType:        rec.VendorType,
		Website:            rec.Website,
		HQCountry:          rec.HQCountry,
		Certifications:     rec.Certifications,
		Compliance:         rec.Compliance,
		RegionsServed:      rec.RegionsServed,
		LeadTimeDays:       rec.LeadTimeDays,
		MOQ:                rec.MOQ,
		LastVerifiedAt:     rec.LastVerifiedAt,
		VerificationSource: rec.VerificationSource,
		Status:             rec.Status,
		ConfidenceScore:    rec.ConfidenceScore,
		VerificationState:  rec.VerificationState,
		Contacts:           cs,
	}
	if p.Certifications == nil {
		p.Certifications = []string{}
	}
	if p.Compliance == nil {
		p.Compliance = map[string][]string{}
	}
	if p.RegionsServed == nil {
		p.RegionsServed = []string{}
	}
	return p
}
