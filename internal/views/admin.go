package views

import (
	"context"
	"net/http"
	"strings"

	"github.com/lachlan2k/rta-portal/internal/csvexport"
)

type KPIStat struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
	Link  string `json:"link,omitempty"`
}

type Activity struct {
	ID     int    `json:"id"`
	Action string `json:"action"`
	Time   string `json:"time"`
}

type SystemAlert struct {
	ID   int    `json:"id"`
	Type string `json:"type"`
	Msg  string `json:"msg"`
}

type FundFlowPoint struct {
	Day     string `json:"day"`
	Inflow  int    `json:"inflow"`
	Outflow int    `json:"outflow"`
}

type ReconSlice struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Dashboard backs both the admin and the AMC home screens
type Dashboard struct {
	Role           string          `json:"role"`
	Title          string          `json:"title"`
	Stats          []KPIStat       `json:"stats"`
	RecentActivity []Activity      `json:"recent_activity"`
	FundFlow       []FundFlowPoint `json:"fund_flow"`
	Reconciliation []ReconSlice    `json:"reconciliation"`
	SystemAlerts   []SystemAlert   `json:"system_alerts"`
}

// The dashboard only ever shows this many alerts
const maxDashboardAlerts = 3

func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	d := new(Dashboard)
	if err := s.client.GetJSON(ctx, "/admin/admindashboard", d); err != nil {
		return nil, err
	}
	if d.Role == "admin" {
		d.Title = "Admin Dashboard"
	} else {
		d.Title = "AMC Dashboard"
	}
	if len(d.SystemAlerts) > maxDashboardAlerts {
		d.SystemAlerts = d.SystemAlerts[:maxDashboardAlerts]
	}
	return d, nil
}

// AuditEntry is one row of the audit log screen
type AuditEntry struct {
	ID        int    `json:"id"`
	User      string `json:"user"`
	Role      string `json:"role"`
	Action    string `json:"action"`
	Timestamp string `json:"timestamp"`
	IP        string `json:"ip"`
}

// AuditRoles are the options of the role filter
var AuditRoles = []string{FilterAll, "Admin", "AMC", "Investor"}

type AuditQuery struct {
	Role   string
	Search string
}

// Matches applies the role filter exactly, and the search to user and action
// ignoring case and to the IP as a plain substring.
func (q AuditQuery) Matches(e AuditEntry) bool {
	if !matchesSelect(e.Role, q.Role) {
		return false
	}
	return containsFold(e.User, q.Search) ||
		containsFold(e.Action, q.Search) ||
		strings.Contains(e.IP, q.Search)
}

func FilterAudit(entries []AuditEntry, q AuditQuery) []AuditEntry {
	return Filter(entries, q.Matches)
}

func (s *Service) AuditLogs(ctx context.Context) ([]AuditEntry, error) {
	return getList[AuditEntry](ctx, s, s.auditPath)
}

var AuditColumns = []csvexport.Column[AuditEntry]{
	{Label: "User", Value: func(e AuditEntry) string { return e.User }},
	{Label: "Role", Value: func(e AuditEntry) string { return e.Role }},
	{Label: "Action", Value: func(e AuditEntry) string { return e.Action }},
	{Label: "Timestamp", Value: func(e AuditEntry) string { return e.Timestamp }},
	{Label: "IP", Value: func(e AuditEntry) string { return e.IP }},
}

// Approval is a transaction waiting on an admin decision
type Approval struct {
	ID       int     `json:"id"`
	Investor string  `json:"investor"`
	PAN      string  `json:"pan"`
	Scheme   string  `json:"scheme"`
	Type     string  `json:"type"`
	Amount   float64 `json:"amount"`
	Date     string  `json:"date"`
	Status   string  `json:"status"`
	Folio    string  `json:"folio"`
	Bank     string  `json:"bank"`
	Nominee  string  `json:"nominee"`
}

var ApprovalStatuses = []string{FilterAll, "Pending", "Approved", "Rejected"}

// FilterApprovals matches the status exactly and the search against investor name or PAN
func FilterApprovals(items []Approval, status, search string) []Approval {
	return Filter(items, func(a Approval) bool {
		return matchesSelect(a.Status, status) && anyContainsFold(search, a.Investor, a.PAN)
	})
}

func (s *Service) Approvals(ctx context.Context) ([]Approval, error) {
	return getList[Approval](ctx, s, "/admin/approvals")
}

// DecideApprovals approves or rejects a batch of transactions
func (s *Service) DecideApprovals(ctx context.Context, ids []int, approve bool) error {
	action := "reject"
	if approve {
		action = "approve"
	}
	return s.client.SendJSON(ctx, http.MethodPost, "/admin/approvals/"+action, map[string][]int{"ids": ids}, nil)
}

// MonitoredTransaction is a row of the transactions monitor and, with the
// AMC and RTA amounts filled in, of the reconciliation screen.
type MonitoredTransaction struct {
	TransactionID   string  `json:"Transaction_ID"`
	FolioNumber     string  `json:"Folio_Number"`
	InvestorName    string  `json:"Investor_Name"`
	PAN             string  `json:"PAN"`
	AMCName         string  `json:"AMC_Name"`
	SchemeName      string  `json:"Scheme_Name"`
	TransactionType string  `json:"Transaction_Type"`
	Amount          float64 `json:"Amount,omitempty"`
	AMCAmount       float64 `json:"AMC_Amount,omitempty"`
	RTAAmount       float64 `json:"RTA_Amount,omitempty"`
	Units           float64 `json:"Units"`
	NAVPerUnit      float64 `json:"NAV_per_Unit"`
	Status          string  `json:"Status"`
	ProcessedBy     string  `json:"Processed_By"`
	TransactionDate string  `json:"Transaction_Date"`
	Remarks         string  `json:"Remarks,omitempty"`
}

type TransactionQuery struct {
	Status string
	Type   string
	Search string
}

// Matches searches folio, investor, PAN, AMC and scheme names ignoring case
func (q TransactionQuery) Matches(t MonitoredTransaction) bool {
	return q.matchRow(t.Status, t.TransactionType, t.FolioNumber, t.InvestorName, t.PAN, t.AMCName, t.SchemeName)
}

func (q TransactionQuery) matchRow(status, txnType string, searchable ...string) bool {
	return matchesSelect(status, q.Status) &&
		matchesSelect(txnType, q.Type) &&
		anyContainsFold(q.Search, searchable...)
}

func FilterTransactions(items []MonitoredTransaction, q TransactionQuery) []MonitoredTransaction {
	return Filter(items, q.Matches)
}

var MonitorStatuses = []string{FilterAll, "Pending", "Completed", "Failed"}

func (s *Service) MonitoredTransactions(ctx context.Context) ([]MonitoredTransaction, error) {
	return getList[MonitoredTransaction](ctx, s, "/admin/transactions")
}

func (s *Service) Reconciliation(ctx context.Context) ([]MonitoredTransaction, error) {
	return getList[MonitoredTransaction](ctx, s, "/admin/reconciliation")
}

var ReconciliationColumns = []csvexport.Column[MonitoredTransaction]{
	{Label: "Transaction ID", Value: func(t MonitoredTransaction) string { return t.TransactionID }},
	{Label: "Folio Number", Value: func(t MonitoredTransaction) string { return t.FolioNumber }},
	{Label: "Investor Name", Value: func(t MonitoredTransaction) string { return t.InvestorName }},
	{Label: "PAN", Value: func(t MonitoredTransaction) string { return t.PAN }},
	{Label: "AMC Name", Value: func(t MonitoredTransaction) string { return t.AMCName }},
	{Label: "Scheme Name", Value: func(t MonitoredTransaction) string { return t.SchemeName }},
	{Label: "Transaction Type", Value: func(t MonitoredTransaction) string { return t.TransactionType }},
	{Label: "AMC Amount", Value: func(t MonitoredTransaction) string { return csvexport.Float(t.AMCAmount) }},
	{Label: "RTA Amount", Value: func(t MonitoredTransaction) string { return csvexport.Float(t.RTAAmount) }},
	{Label: "Units", Value: func(t MonitoredTransaction) string { return csvexport.Float(t.Units) }},
	{Label: "NAV per Unit", Value: func(t MonitoredTransaction) string { return csvexport.Float(t.NAVPerUnit) }},
	{Label: "Status", Value: func(t MonitoredTransaction) string { return t.Status }},
	{Label: "Processed By", Value: func(t MonitoredTransaction) string { return t.ProcessedBy }},
	{Label: "Transaction Date", Value: func(t MonitoredTransaction) string { return t.TransactionDate }},
	{Label: "Remarks", Value: func(t MonitoredTransaction) string { return t.Remarks }},
}

// PortalUser is a back-office account on the user and role management screen
type PortalUser struct {
	UserID      string `json:"User_ID"`
	Name        string `json:"Name"`
	Email       string `json:"Email"`
	Role        string `json:"Role"`
	AccessLevel string `json:"Access_Level"`
	Status      string `json:"Status"`
	CreatedOn   string `json:"Created_On"`
	LastLogin   string `json:"Last_Login"`
}

type UserQuery struct {
	Role   string
	Status string
	Search string
}

func FilterUsers(users []PortalUser, q UserQuery) []PortalUser {
	return Filter(users, func(u PortalUser) bool {
		return matchesSelect(u.Role, q.Role) &&
			matchesSelect(u.Status, q.Status) &&
			anyContainsFold(q.Search, u.Name, u.Email, u.UserID)
	})
}

func (s *Service) Users(ctx context.Context) ([]PortalUser, error) {
	return getList[PortalUser](ctx, s, "/admin/users")
}

// ToggleUserStatus flips Active and Inactive
func (s *Service) ToggleUserStatus(ctx context.Context, u PortalUser) (*PortalUser, error) {
	next := "Active"
	if u.Status == "Active" {
		next = "Inactive"
	}
	return update[PortalUser](ctx, s, idPath("/admin/users", u.UserID), map[string]string{"Status": next})
}
