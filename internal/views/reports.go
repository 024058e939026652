package views

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"

	"github.com/lachlan2k/rta-portal/internal/apiclient"
	"github.com/lachlan2k/rta-portal/internal/auth"
	"github.com/lachlan2k/rta-portal/internal/csvexport"
)

type LedgerEntry struct {
	TxnID       int     `json:"txn_id"`
	InvestorID  int     `json:"investor_id"`
	FolioNumber string  `json:"folio_number"`
	SchemeID    string  `json:"scheme_id"`
	TxnType     string  `json:"txn_type"`
	Amount      float64 `json:"amount"`
	Units       float64 `json:"units"`
	NAV         float64 `json:"nav"`
	Date        string  `json:"date"`
	Status      string  `json:"status"`
	Bank        string  `json:"bank,omitempty"`
	PaymentMode string  `json:"payment_mode,omitempty"`
}

func (s *Service) TransactionLedger(ctx context.Context) ([]LedgerEntry, error) {
	return getList[LedgerEntry](ctx, s, "/investor/investor/transactionledger")
}

type FolioSummary struct {
	FolioNumber string  `json:"folio_number"`
	InvestorID  int     `json:"investor_id"`
	SchemeID    string  `json:"scheme_id"`
	TotalUnits  float64 `json:"total_units"`
	TotalValue  float64 `json:"total_value"`
	LastNAV     float64 `json:"last_nav"`
	UpdatedAt   string  `json:"updated_at"`
}

func (s *Service) FolioSummary(ctx context.Context) ([]FolioSummary, error) {
	return getList[FolioSummary](ctx, s, "/investor/investor/foliosummary")
}

type SIP struct {
	SIPID    int     `json:"sip_id"`
	SchemeID string  `json:"scheme_id"`
	Amount   float64 `json:"amount"`
	Date     string  `json:"date"`
}

func (s *Service) SIPs(ctx context.Context) ([]SIP, error) {
	return getList[SIP](ctx, s, "/investor/investor/sips")
}

type UnclaimedAmount struct {
	UnclaimedID    int     `json:"unclaimed_id"`
	TxnID          int     `json:"txn_id"`
	Scheme         string  `json:"scheme"`
	Folio          string  `json:"folio"`
	Type           string  `json:"type"`
	Amount         float64 `json:"amount"`
	UnclaimedSince string  `json:"unclaimed_since"`
	Status         string  `json:"status"`
	Description    string  `json:"description"`
}

func (s *Service) UnclaimedAmounts(ctx context.Context) ([]UnclaimedAmount, error) {
	return getList[UnclaimedAmount](ctx, s, "/investor/investor/unclaimed-amounts")
}

// ClaimUnclaimed files a claim and returns the backend's confirmation
func (s *Service) ClaimUnclaimed(ctx context.Context, id int) (string, error) {
	var res struct {
		Message string `json:"message"`
	}
	path := fmt.Sprintf("/investor/investor/unclaimed-claim?unclaimed_id=%d", id)
	if err := s.client.SendJSON(ctx, http.MethodPost, path, map[string]int{"unclaimed_id": id}, &res); err != nil {
		return "", err
	}
	return res.Message, nil
}

type CapitalGain struct {
	Scheme     string  `json:"Scheme"`
	Folio      string  `json:"Folio"`
	BuyDate    string  `json:"BuyDate"`
	SellDate   string  `json:"SellDate"`
	BuyAmount  float64 `json:"BuyAmount"`
	SellAmount float64 `json:"SellAmount"`
	Gains      float64 `json:"Gains"`
	Type       string  `json:"Type"`
}

// DefaultFinancialYear is what the capital gains screen opens on
const DefaultFinancialYear = "2024-25"

func (s *Service) CapitalGains(ctx context.Context, year string) ([]CapitalGain, error) {
	if year == "" {
		year = DefaultFinancialYear
	}
	return getList[CapitalGain](ctx, s, "/investor/investor/capital-gains-stored?year="+url.QueryEscape(year))
}

// Statement is a file generated by the backend, passed on untouched
type Statement struct {
	Filename    string
	ContentType string
	Body        []byte
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var financialYearRe = regexp.MustCompile(`^[0-9]{4}-[0-9]{2}$`)

// CASStatement downloads the consolidated account statement workbook for one
// financial year (yyyy-yy), covering every folio the investor holds.
func (s *Service) CASStatement(ctx context.Context, year string) (*Statement, error) {
	if year == "" {
		year = DefaultFinancialYear
	}
	if !financialYearRe.MatchString(year) {
		return nil, auth.ValidationErrors{{Field: "year", Message: "Year format must be yyyy-yy"}}
	}

	res, err := s.client.Fetch(ctx, "/investor/api/cas/generate-excel?year="+url.QueryEscape(year), apiclient.Request{})
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, apiclient.DecodeError(res)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read CAS statement: %w", err)
	}

	contentType := res.Header.Get("Content-Type")
	if contentType == "" {
		contentType = xlsxContentType
	}
	return &Statement{
		Filename:    "CAS_" + year + ".xlsx",
		ContentType: contentType,
		Body:        body,
	}, nil
}

func (s *Service) ValuationReport(ctx context.Context) ([]Holding, error) {
	return getList[Holding](ctx, s, "/investor/investor/valuation-report")
}

var CapitalGainColumns = []csvexport.Column[CapitalGain]{
	{Label: "Scheme", Value: func(c CapitalGain) string { return c.Scheme }},
	{Label: "Folio", Value: func(c CapitalGain) string { return c.Folio }},
	{Label: "BuyDate", Value: func(c CapitalGain) string { return c.BuyDate }},
	{Label: "SellDate", Value: func(c CapitalGain) string { return c.SellDate }},
	{Label: "BuyAmount", Value: func(c CapitalGain) string { return csvexport.Float(c.BuyAmount) }},
	{Label: "SellAmount", Value: func(c CapitalGain) string { return csvexport.Float(c.SellAmount) }},
	{Label: "Gains", Value: func(c CapitalGain) string { return csvexport.Float(c.Gains) }},
	{Label: "Type", Value: func(c CapitalGain) string { return c.Type }},
}

var ValuationColumns = []csvexport.Column[Holding]{
	{Label: "Scheme", Value: func(h Holding) string { return h.Scheme }},
	{Label: "Folio", Value: func(h Holding) string { return h.Folio }},
	{Label: "Units", Value: func(h Holding) string { return csvexport.Float(h.Units) }},
	{Label: "NAV", Value: func(h Holding) string { return csvexport.Float(h.NAV) }},
	{Label: "Value", Value: func(h Holding) string { return csvexport.Float(h.Value) }},
}
