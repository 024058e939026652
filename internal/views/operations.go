package views

import (
	"context"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/lachlan2k/rta-portal/internal/auth"
	"github.com/lachlan2k/rta-portal/internal/csvexport"
)

// NAVRecord is one row of an uploaded NAV file. Rows naming an AMC or scheme
// missing from the scheme master come back with a Failed status.
type NAVRecord struct {
	AMCName       string  `json:"AMC_Name"`
	SchemeName    string  `json:"Scheme_Name"`
	NAV           float64 `json:"NAV"`
	EffectiveDate string  `json:"Effective_Date"`
	UploadedBy    string  `json:"Uploaded_By"`
	Status        string  `json:"Status"`
}

type NAVQuery struct {
	AMC    string
	Search string
}

func FilterNAVs(rows []NAVRecord, q NAVQuery) []NAVRecord {
	return Filter(rows, func(r NAVRecord) bool {
		return matchesSelect(r.AMCName, q.AMC) && anyContainsFold(q.Search, r.SchemeName, r.AMCName)
	})
}

func (s *Service) NAVUploads(ctx context.Context) ([]NAVRecord, error) {
	return getList[NAVRecord](ctx, s, "/admin/nav-uploads")
}

// UploadNAVFile sends a NAV file to be checked against the scheme master and
// returns every row it contained.
func (s *Service) UploadNAVFile(ctx context.Context, filename string, file io.Reader) ([]NAVRecord, error) {
	var rows []NAVRecord
	if err := s.client.Upload(ctx, "/admin/nav-uploads", "file", filename, file, nil, &rows); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []NAVRecord{}
	}
	return rows, nil
}

// NAVTemplateColumns are the columns a NAV upload file is expected to carry
var NAVTemplateColumns = []csvexport.Column[NAVRecord]{
	{Label: "AMC_Name", Value: func(r NAVRecord) string { return r.AMCName }},
	{Label: "Scheme_Name", Value: func(r NAVRecord) string { return r.SchemeName }},
	{Label: "NAV", Value: func(r NAVRecord) string { return csvexport.Float(r.NAV) }},
	{Label: "Effective_Date", Value: func(r NAVRecord) string { return r.EffectiveDate }},
}

// IDCWPayout is a declared dividend payout or reinvestment awaiting processing
type IDCWPayout struct {
	TransactionID   string  `json:"Transaction_ID"`
	FolioNumber     string  `json:"Folio_Number"`
	InvestorName    string  `json:"Investor_Name"`
	PAN             string  `json:"PAN"`
	AMCName         string  `json:"AMC_Name"`
	SchemeName      string  `json:"Scheme_Name"`
	TransactionType string  `json:"Transaction_Type"`
	Units           float64 `json:"Units"`
	Amount          float64 `json:"Amount"`
	NAVPerUnit      float64 `json:"NAV_per_Unit"`
	Status          string  `json:"Status"`
	ProcessedBy     string  `json:"Processed_By"`
	DeclarationDate string  `json:"Declaration_Date"`
	ReferenceID     string  `json:"Reference_ID"`
}

var IDCWStatuses = []string{FilterAll, "Pending", "Completed", "Failed"}

func FilterIDCW(items []IDCWPayout, q TransactionQuery) []IDCWPayout {
	return Filter(items, func(p IDCWPayout) bool {
		return q.matchRow(p.Status, p.TransactionType, p.FolioNumber, p.InvestorName, p.PAN, p.AMCName, p.SchemeName)
	})
}

func (s *Service) IDCWPayouts(ctx context.Context) ([]IDCWPayout, error) {
	return getList[IDCWPayout](ctx, s, "/admin/idcw")
}

// ProcessIDCW marks a pending payout as completed
func (s *Service) ProcessIDCW(ctx context.Context, id string) (*IDCWPayout, error) {
	return create[IDCWPayout](ctx, s, idPath("/admin/idcw", id)+"/process", nil)
}

// UnclaimedFund is a payout or redemption the investor never collected
type UnclaimedFund struct {
	TransactionID   string  `json:"Transaction_ID"`
	FolioNumber     string  `json:"Folio_Number"`
	InvestorName    string  `json:"Investor_Name"`
	PAN             string  `json:"PAN"`
	AMCName         string  `json:"AMC_Name"`
	SchemeName      string  `json:"Scheme_Name"`
	TransactionType string  `json:"Transaction_Type"`
	Amount          float64 `json:"Amount"`
	Units           float64 `json:"Units"`
	NAVPerUnit      float64 `json:"NAV_per_Unit"`
	Status          string  `json:"Status"`
	ProcessedBy     string  `json:"Processed_By"`
	UnclaimedSince  string  `json:"Unclaimed_Since"`
	ReferenceID     string  `json:"Reference_ID"`
}

var UnclaimedStatuses = []string{FilterAll, "Pending", "Released"}

func FilterUnclaimedFunds(items []UnclaimedFund, q TransactionQuery) []UnclaimedFund {
	return Filter(items, func(u UnclaimedFund) bool {
		return q.matchRow(u.Status, u.TransactionType, u.FolioNumber, u.InvestorName, u.PAN, u.AMCName, u.SchemeName)
	})
}

func (s *Service) UnclaimedFunds(ctx context.Context) ([]UnclaimedFund, error) {
	return getList[UnclaimedFund](ctx, s, "/admin/unclaimed")
}

// ReleaseUnclaimed pays out a pending unclaimed amount
func (s *Service) ReleaseUnclaimed(ctx context.Context, id string) (*UnclaimedFund, error) {
	return create[UnclaimedFund](ctx, s, idPath("/admin/unclaimed", id)+"/release", nil)
}

// Totals sums the amount and units of whatever the table currently shows
type Totals struct {
	Amount float64 `json:"total_amount"`
	Units  float64 `json:"total_units"`
}

func Sum[T any](items []T, amount, units func(T) float64) Totals {
	var t Totals
	for _, it := range items {
		t.Amount += amount(it)
		t.Units += units(it)
	}
	return t
}

// SystemSetting is one editable row of the system settings screen
type SystemSetting struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

const maxSIPAmountKey = "Max SIP Amount"

var settingTimeRe = regexp.MustCompile(`^[0-9]{2}:[0-9]{2}$`)

// Validate checks time settings are HH:mm and the SIP ceiling is a positive
// number. Any other setting is free text.
func (st SystemSetting) Validate() error {
	switch {
	case strings.Contains(st.Key, "Time"):
		if !settingTimeRe.MatchString(st.Value) {
			return errors.New("Invalid time format (HH:mm expected)")
		}
	case st.Key == maxSIPAmountKey:
		n, err := strconv.ParseFloat(strings.TrimSpace(st.Value), 64)
		if err != nil || !(n > 0) {
			return errors.New("Must be a positive number")
		}
	}
	return nil
}

// ValidateSettings reports every invalid setting, keyed by setting name
func ValidateSettings(settings []SystemSetting) error {
	var problems auth.ValidationErrors
	for _, st := range settings {
		if err := st.Validate(); err != nil {
			problems = append(problems, auth.FieldProblem{Field: st.Key, Message: err.Error()})
		}
	}
	if len(problems) > 0 {
		return problems
	}
	return nil
}

func (s *Service) SystemSettings(ctx context.Context) ([]SystemSetting, error) {
	return getList[SystemSetting](ctx, s, "/admin/settings")
}

// SaveSystemSettings refuses to send anything unless every setting is valid
func (s *Service) SaveSystemSettings(ctx context.Context, settings []SystemSetting) ([]SystemSetting, error) {
	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}
	var out []SystemSetting
	if err := s.client.SendJSON(ctx, http.MethodPut, "/admin/settings", settings, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = settings
	}
	return out, nil
}
