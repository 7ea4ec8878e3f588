package commission

import (
	"sort"
	"time"

	"scholarcrm/internal/domain/project"
	"scholarcrm/internal/domain/user"
)

// Attribution tells how a project reached a partner.
type Attribution string

const (
	AttributionNone   Attribution = ""
	AttributionDirect Attribution = "direct"
	AttributionSignup Attribution = "sign-up"
)

// Line is one project's contribution to a statement.
type Line struct {
	ProjectID   string      `json:"project_id"`
	Title       string      `json:"title"`
	ClientID    string      `json:"client_id"`
	DealAmount  int64       `json:"deal_amount"`
	Amount      int64       `json:"amount"`
	Overridden  bool        `json:"overridden"`
	Via         Attribution `json:"via,omitempty"`
	FinalizedAt *time.Time  `json:"finalized_at,omitempty"`
}

// Statement is a derived commission total with the lines that produced it.
type Statement struct {
	UserID string `json:"user_id"`
	Lines  []Line `json:"lines"`
	Total  int64  `json:"total"`
}

// Attribute returns the partner a finalized project is credited to. A partner named on the
// project wins over the code the client signed up with. client is nil for clients without an
// account; partnersByCode maps referral codes to partner ids.
func Attribute(p *project.Project, client *user.UserProfile, partnersByCode map[string]string) (string, Attribution) {
	if p.ReferredByPartnerID != nil && *p.ReferredByPartnerID != "" {
		return *p.ReferredByPartnerID, AttributionDirect
	}
	if client == nil || client.ReferredBy == nil {
		return "", AttributionNone
	}
	if partnerID, ok := partnersByCode[*client.ReferredBy]; ok {
		return partnerID, AttributionSignup
	}
	return "", AttributionNone
}

// PartnerAmount is the project's commission override when set, else the partner's rate.
func PartnerAmount(p *project.Project, partner *user.UserProfile) (int64, bool) {
	if p.CommissionAmount != nil {
		return *p.CommissionAmount, true
	}
	return partner.CommissionRate, false
}

// Earnings builds the partner's statement over projects. Projects that are not finalized or
// that attribute to someone else are skipped. clients is keyed by uid.
func Earnings(partner *user.UserProfile, projects []project.Project, clients map[string]*user.UserProfile) Statement {
	partnersByCode := map[string]string{}
	if partner.ReferralCode != nil {
		partnersByCode[*partner.ReferralCode] = partner.UID
	}

	st := Statement{UserID: partner.UID, Lines: []Line{}}
	for i := range projects {
		p := &projects[i]
		if !p.IsFinalized() {
			continue
		}

		var client *user.UserProfile
		if uid, ok := p.UserID.UserID(); ok {
			client = clients[uid]
		}

		partnerID, via := Attribute(p, client, partnersByCode)
		if partnerID != partner.UID {
			continue
		}

		amount, overridden := PartnerAmount(p, partner)
		st.Lines = append(st.Lines, newLine(p, amount, overridden, via))
		st.Total += amount
	}
	sortLines(st.Lines)
	return st
}

// SalesStatement sums the sales commission on finalized projects whose deal salesID struck.
func SalesStatement(salesID string, projects []project.Project) Statement {
	st := Statement{UserID: salesID, Lines: []Line{}}
	for i := range projects {
		p := &projects[i]
		if !p.IsFinalized() || p.FinalizedBy == nil || *p.FinalizedBy != salesID {
			continue
		}

		var amount int64
		if p.SalesCommissionAmount != nil {
			amount = *p.SalesCommissionAmount
		}
		st.Lines = append(st.Lines, newLine(p, amount, false, AttributionNone))
		st.Total += amount
	}
	sortLines(st.Lines)
	return st
}

func newLine(p *project.Project, amount int64, overridden bool, via Attribution) Line {
	var deal int64
	if p.DealAmount != nil {
		deal = *p.DealAmount
	}
	return Line{
		ProjectID:   p.ID,
		Title:       p.Title,
		ClientID:    p.UserID.String(),
		DealAmount:  deal,
		Amount:      amount,
		Overridden:  overridden,
		Via:         via,
		FinalizedAt: p.FinalizedAt,
	}
}

func sortLines(lines []Line) {
	sort.SliceStable(lines, func(i, j int) bool {
		a, b := lines[i].FinalizedAt, lines[j].FinalizedAt
		switch {
		case a == nil && b == nil:
		case a == nil:
			return true
		case b == nil:
			return false
		case !a.Equal(*b):
			return a.Before(*b)
		}
		return lines[i].ProjectID < lines[j].ProjectID
	})
}
