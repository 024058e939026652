package views

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func TestPaginate(t *testing.T) {
	p := Paginate(seq(23), 1, 10)
	assert.Equal(t, seq(10), p.Items)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 23, p.Total)
	assert.False(t, p.Empty)

	p = Paginate(seq(23), 3, 10)
	assert.Equal(t, []int{21, 22, 23}, p.Items)

	p = Paginate(seq(23), 4, 10)
	assert.Empty(t, p.Items)
	assert.False(t, p.Empty)

	p = Paginate(seq(5), 0, 10)
	assert.Equal(t, 1, p.Page)
	assert.Len(t, p.Items, 5)

	p = Paginate([]int{}, 1, 10)
	assert.True(t, p.Empty)
	assert.Equal(t, 0, p.TotalPages)
	assert.NotNil(t, p.Items)
}

var auditFixture = []AuditEntry{
	{ID: 1, User: "admin@rta.com", Role: "Admin", Action: "Approved Transaction #1234", Timestamp: "2025-09-15 10:35:21", IP: "192.168.1.101"},
	{ID: 2, User: "ops@amc.com", Role: "AMC", Action: "Generated Compliance Report", Timestamp: "2025-09-15 09:15:47", IP: "192.168.1.205"},
	{ID: 3, User: "investor1@example.com", Role: "Investor", Action: "Logged in", Timestamp: "2025-09-14 19:22:05", IP: "192.168.1.150"},
	{ID: 4, User: "admin@rta.com", Role: "Admin", Action: "Modified User Role", Timestamp: "2025-09-14 14:02:33", IP: "192.168.1.101"},
}

func ids(entries []AuditEntry) []int {
	out := []int{}
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func TestFilterAudit(t *testing.T) {
	tests := []struct {
		name string
		q    AuditQuery
		want []int
	}{
		{"everything", AuditQuery{Role: FilterAll}, []int{1, 2, 3, 4}},
		{"zero value is everything", AuditQuery{}, []int{1, 2, 3, 4}},
		{"role exact", AuditQuery{Role: "Admin"}, []int{1, 4}},
		{"role is case sensitive", AuditQuery{Role: "admin"}, []int{}},
		{"user ignores case", AuditQuery{Search: "ADMIN@"}, []int{1, 4}},
		{"action ignores case", AuditQuery{Search: "compliance"}, []int{2}},
		{"ip substring", AuditQuery{Search: ".150"}, []int{3}},
		{"role and search", AuditQuery{Role: "Admin", Search: "role"}, []int{4}},
		{"no match", AuditQuery{Search: "nothing here"}, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(FilterAudit(auditFixture, tt.q)))
		})
	}
}

func TestFilterTransactions(t *testing.T) {
	txns := []MonitoredTransaction{
		{TransactionID: "T001", FolioNumber: "F001", InvestorName: "Rohan Sharma", PAN: "ABCDE1234F", AMCName: "Visionary Mutual Fund", SchemeName: "Visionary Bluechip Fund", TransactionType: "Fresh Purchase", Status: "Completed"},
		{TransactionID: "T002", FolioNumber: "F002", InvestorName: "Priya Mehta", PAN: "PQRSX6789K", AMCName: "Horizon AMC", SchemeName: "Horizon Debt Fund", TransactionType: "Redemption", Status: "Pending"},
	}

	assert.Len(t, FilterTransactions(txns, TransactionQuery{}), 2)
	assert.Len(t, FilterTransactions(txns, TransactionQuery{Status: "Pending"}), 1)
	assert.Len(t, FilterTransactions(txns, TransactionQuery{Type: "Fresh Purchase", Search: "bluechip"}), 1)
	assert.Len(t, FilterTransactions(txns, TransactionQuery{Search: "pqrsx"}), 1)
	assert.Empty(t, FilterTransactions(txns, TransactionQuery{Type: "Redemption", Search: "rohan"}))

	assert.Equal(t, []string{FilterAll, "Fresh Purchase", "Redemption"}, Distinct(txns, func(t MonitoredTransaction) string { return t.TransactionType }))
}

func TestFilterApprovalsAndUsers(t *testing.T) {
	approvals := []Approval{
		{ID: 1, Investor: "John Doe", PAN: "ABCDE1234F", Status: "Pending"},
		{ID: 2, Investor: "Jane Roe", PAN: "ZZZZZ9999Z", Status: "Approved"},
	}
	assert.Len(t, FilterApprovals(approvals, "Pending", ""), 1)
	assert.Len(t, FilterApprovals(approvals, FilterAll, "zzzzz"), 1)

	users := []PortalUser{
		{UserID: "U001", Name: "RTA CEO", Email: "ceo@rta.com", Role: "CEO", Status: "Active"},
		{UserID: "U004", Name: "Senior Executive", Email: "senior@rta.com", Role: "Senior Executive", Status: "Inactive"},
	}
	assert.Len(t, FilterUsers(users, UserQuery{Status: "Active"}), 1)
	assert.Len(t, FilterUsers(users, UserQuery{Search: "u004"}), 1)

	clients := []Client{{ID: "C1", Name: "Meera", Active: true}, {ID: "C2", Name: "Meena", Active: false}}
	assert.Len(t, FilterClients(clients, "mee", false), 2)
	assert.Len(t, FilterClients(clients, "mee", true), 1)
}
