package views

import (
	"context"
	"io"
	"net/http"

	"github.com/lachlan2k/rta-portal/internal/auth"
)

type Bank struct {
	BankID    int    `json:"bank_id"`
	AccountNo string `json:"account_no"`
	IFSC      string `json:"ifsc"`
	Branch    string `json:"branch,omitempty"`
	Verified  bool   `json:"verified"`
	IsDefault bool   `json:"is_default"`
}

type Nominee struct {
	NomineeID int     `json:"nominee_id,omitempty"`
	Name      string  `json:"name"`
	Relation  string  `json:"relation,omitempty"`
	Pct       float64 `json:"pct"`
}

// InvestorProfile is what the profile, bank and nominee screens render
type InvestorProfile struct {
	PAN       string    `json:"pan"`
	Name      string    `json:"name"`
	DOB       string    `json:"dob,omitempty"`
	Address   string    `json:"address,omitempty"`
	Email     string    `json:"email"`
	Mobile    string    `json:"mobile,omitempty"`
	KYCStatus string    `json:"kyc_status,omitempty"`
	IsActive  bool      `json:"is_active"`
	Banks     []Bank    `json:"banks"`
	Nominees  []Nominee `json:"nominees"`
}

// ProfileUpdate only sends the fields that were set
type ProfileUpdate struct {
	Name    string `json:"name,omitempty"`
	PAN     string `json:"pan,omitempty"`
	DOB     string `json:"dob,omitempty"`
	Address string `json:"address,omitempty"`
	Email   string `json:"email,omitempty"`
	Mobile  string `json:"mobile,omitempty"`
}

func (u ProfileUpdate) Validate() error {
	var problems auth.ValidationErrors
	add := func(field, value string, fn func(string) error) {
		if value == "" {
			return
		}
		if err := fn(value); err != nil {
			problems = append(problems, auth.FieldProblem{Field: field, Message: err.Error()})
		}
	}
	add("name", u.Name, auth.ValidateName)
	add("pan", u.PAN, auth.ValidatePAN)
	add("email", u.Email, auth.ValidateEmail)
	add("mobile", u.Mobile, auth.ValidateMobile)
	add("address", u.Address, auth.ValidateAddress)
	if len(problems) > 0 {
		return problems
	}
	return nil
}

func (s *Service) Profile(ctx context.Context) (*InvestorProfile, error) {
	p := new(InvestorProfile)
	if err := s.client.GetJSON(ctx, "/investor/profile", p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) UpdateProfile(ctx context.Context, u ProfileUpdate) (*InvestorProfile, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return update[InvestorProfile](ctx, s, "/investor/profile", u)
}

func (s *Service) Banks(ctx context.Context) ([]Bank, error) {
	p, err := s.Profile(ctx)
	if err != nil {
		return nil, err
	}
	if p.Banks == nil {
		return []Bank{}, nil
	}
	return p.Banks, nil
}

func (s *Service) AddBank(ctx context.Context, b auth.BankAccount) (*Bank, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return create[Bank](ctx, s, "/investor/banks", b)
}

func (s *Service) UpdateBank(ctx context.Context, id int, b auth.BankAccount) (*Bank, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return update[Bank](ctx, s, idPath("/investor/banks", id), b)
}

func (s *Service) DeleteBank(ctx context.Context, id int) error {
	return s.client.Delete(ctx, idPath("/investor/banks", id))
}

func (s *Service) Nominees(ctx context.Context) ([]Nominee, error) {
	p, err := s.Profile(ctx)
	if err != nil {
		return nil, err
	}
	if p.Nominees == nil {
		return []Nominee{}, nil
	}
	return p.Nominees, nil
}

func (s *Service) AddNominee(ctx context.Context, n Nominee) (*Nominee, error) {
	if err := validateNominee(n); err != nil {
		return nil, err
	}
	return create[Nominee](ctx, s, "/investor/nominees", n)
}

func (s *Service) UpdateNominee(ctx context.Context, id int, n Nominee) (*Nominee, error) {
	if err := validateNominee(n); err != nil {
		return nil, err
	}
	return update[Nominee](ctx, s, idPath("/investor/nominees", id), n)
}

func (s *Service) DeleteNominee(ctx context.Context, id int) error {
	return s.client.Delete(ctx, idPath("/investor/nominees", id))
}

func validateNominee(n Nominee) error {
	var problems auth.ValidationErrors
	if err := auth.ValidateName(n.Name); err != nil {
		problems = append(problems, auth.FieldProblem{Field: "name", Message: err.Error()})
	}
	if n.Pct <= 0 || n.Pct > 100 {
		problems = append(problems, auth.FieldProblem{Field: "pct", Message: "Share must be between 1 and 100 percent"})
	}
	if len(problems) > 0 {
		return problems
	}
	return nil
}

type Mandate struct {
	ID      int    `json:"id,omitempty"`
	Scheme  string `json:"scheme"`
	Type    string `json:"type"`
	Status  string `json:"status,omitempty"`
	Created string `json:"created"`
}

func (s *Service) Mandates(ctx context.Context) ([]Mandate, error) {
	return getList[Mandate](ctx, s, "/investor/mandates")
}

func (s *Service) AddMandate(ctx context.Context, m Mandate) (*Mandate, error) {
	return create[Mandate](ctx, s, "/investor/mandates", m)
}

func (s *Service) DeleteMandate(ctx context.Context, id int) error {
	return s.client.Delete(ctx, idPath("/investor/mandates", id))
}

type Transaction struct {
	TxnID       int     `json:"txn_id"`
	SchemeID    string  `json:"scheme_id"`
	FolioNumber string  `json:"folio_number"`
	Amount      float64 `json:"amount"`
	NAV         float64 `json:"nav"`
	Units       float64 `json:"units"`
	Date        string  `json:"date"`
	Status      string  `json:"status"`
}

func (s *Service) Transactions(ctx context.Context) ([]Transaction, error) {
	return getList[Transaction](ctx, s, "/investor/transactions")
}

// Holding is a folio position, as in the valuation report
type Holding struct {
	Scheme string  `json:"scheme"`
	Folio  string  `json:"folio"`
	Units  float64 `json:"units"`
	NAV    float64 `json:"nav"`
	Value  float64 `json:"value"`
}

type FolioDetails struct {
	Folio        string        `json:"folio"`
	Holdings     []Holding     `json:"holdings"`
	Transactions []Transaction `json:"transactions"`
}

// FolioDetails makes the two calls the folio screen needs
func (s *Service) FolioDetails(ctx context.Context, folio string) (*FolioDetails, error) {
	holdings, err := getList[Holding](ctx, s, idPath("/investor/folios", folio)+"/holdings")
	if err != nil {
		return nil, err
	}
	txns, err := getList[Transaction](ctx, s, idPath("/investor/folios", folio)+"/transactions")
	if err != nil {
		return nil, err
	}
	return &FolioDetails{Folio: folio, Holdings: holdings, Transactions: txns}, nil
}

type ServiceRequest struct {
	ID      int    `json:"id,omitempty"`
	Type    string `json:"type"`
	Details string `json:"details"`
	Status  string `json:"status,omitempty"`
	Created string `json:"created"`
}

func (s *Service) ServiceRequests(ctx context.Context) ([]ServiceRequest, error) {
	return getList[ServiceRequest](ctx, s, "/investor/service-requests")
}

func (s *Service) CreateServiceRequest(ctx context.Context, r ServiceRequest) (*ServiceRequest, error) {
	return create[ServiceRequest](ctx, s, "/investor/service-requests", r)
}

type Notification struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Date  string `json:"date"`
	Read  bool   `json:"read"`
}

func (s *Service) Notifications(ctx context.Context) ([]Notification, error) {
	return getList[Notification](ctx, s, "/investor/notifications")
}

func (s *Service) MarkNotificationRead(ctx context.Context, id int) error {
	return s.client.SendJSON(ctx, http.MethodPost, idPath("/investor/notifications", id)+"/mark-read", nil, nil)
}

func (s *Service) ClearNotifications(ctx context.Context) error {
	return s.client.SendJSON(ctx, http.MethodPost, "/investor/notifications/clear-all", nil, nil)
}

type Complaint struct {
	ID          int    `json:"id,omitempty"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Date        string `json:"date"`
}

func (s *Service) Complaints(ctx context.Context) ([]Complaint, error) {
	return getList[Complaint](ctx, s, "/investor/complaints")
}

func (s *Service) FileComplaint(ctx context.Context, c Complaint) (*Complaint, error) {
	return create[Complaint](ctx, s, "/investor/complaints", c)
}

type SupportTicket struct {
	ID      int    `json:"id,omitempty"`
	Subject string `json:"subject"`
	Message string `json:"message"`
	Status  string `json:"status"`
	Created string `json:"created"`
}

func (s *Service) SupportTickets(ctx context.Context) ([]SupportTicket, error) {
	return getList[SupportTicket](ctx, s, "/investor/support-tickets")
}

func (s *Service) OpenSupportTicket(ctx context.Context, t SupportTicket) (*SupportTicket, error) {
	return create[SupportTicket](ctx, s, "/investor/support-tickets", t)
}

// Client is a distributor's client, shown on the client list screen
type Client struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	TotalCommission int    `json:"total_commission"`
	Active          bool   `json:"active"`
}

func (s *Service) Clients(ctx context.Context) ([]Client, error) {
	return getList[Client](ctx, s, "/investor/clients")
}

// FilterClients matches name, email or id, optionally only active ones
func FilterClients(clients []Client, search string, activeOnly bool) []Client {
	return Filter(clients, func(c Client) bool {
		if activeOnly && !c.Active {
			return false
		}
		return anyContainsFold(search, c.Name, c.Email, c.ID)
	})
}

type Document struct {
	ID           any    `json:"id"`
	DocumentType string `json:"document_type,omitempty"`
	Filename     string `json:"filename,omitempty"`
	UploadedAt   string `json:"uploaded_at,omitempty"`
	Status       string `json:"status,omitempty"`
}

func (s *Service) Documents(ctx context.Context) ([]Document, error) {
	return getList[Document](ctx, s, "/investor/documents")
}

func (s *Service) UploadDocument(ctx context.Context, docType, filename string, file io.Reader) (*Document, error) {
	out := new(Document)
	err := s.client.Upload(ctx, "/investor/documents", "file", filename, file, map[string]string{"document_type": docType}, out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

type Disclosure struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (s *Service) Disclosures(ctx context.Context) ([]Disclosure, error) {
	return getList[Disclosure](ctx, s, "/regulatory-disclosures")
}

type IDCWPreference struct {
	PrefID     int    `json:"pref_id,omitempty"`
	SchemeID   string `json:"scheme_id"`
	Preference string `json:"preference"`
}

func (s *Service) IDCWPreferences(ctx context.Context) ([]IDCWPreference, error) {
	return getList[IDCWPreference](ctx, s, "/investor/idcw-preferences")
}

func (s *Service) SetIDCWPreference(ctx context.Context, p IDCWPreference) error {
	return s.client.SendJSON(ctx, http.MethodPost, "/investor/idcw-preferences", p, nil)
}

// Security settings

type TwoFAStatus struct {
	Enabled bool `json:"enabled"`
}

type LoginSession struct {
	ID         string `json:"id"`
	Device     string `json:"device,omitempty"`
	IPAddress  string `json:"ip_address,omitempty"`
	CreatedAt  string `json:"created_at"`
	LastActive string `json:"last_active"`
	IsActive   bool   `json:"is_active"`
}

type SecuritySettings struct {
	TwoFA    TwoFAStatus    `json:"two_fa"`
	Sessions []LoginSession `json:"sessions"`
}

func (s *Service) SecuritySettings(ctx context.Context) (*SecuritySettings, error) {
	out := new(SecuritySettings)
	if err := s.client.GetJSON(ctx, "/auth/2fa-status", &out.TwoFA); err != nil {
		return nil, err
	}
	sessions, err := getList[LoginSession](ctx, s, "/auth/sessions")
	if err != nil {
		return nil, err
	}
	out.Sessions = sessions
	return out, nil
}

func (s *Service) SetTwoFA(ctx context.Context, enabled bool) error {
	method := http.MethodPost
	if !enabled {
		method = http.MethodDelete
	}
	return s.client.SendJSON(ctx, method, "/auth/2fa", nil, nil)
}

func (s *Service) SignOutSession(ctx context.Context, id string) error {
	return s.client.Delete(ctx, idPath("/auth/sessions", id))
}
