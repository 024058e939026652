package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatValidators(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) error
		good []string
		bad  []string
	}{
		{"pan", ValidatePAN, []string{"ABCDE1234F"}, []string{"abcde1234f", "ABCD1234F", "ABCDE12345", ""}},
		{"email", ValidateEmail, []string{"a@b.co", "asha.rao@example.in"}, []string{"a@b", "a b@c.d", "@c.d", ""}},
		{"mobile", ValidateMobile, []string{"9876543210"}, []string{"987654321", "98765432101", "98765-4321"}},
		{"ifsc", ValidateIFSC, []string{"HDFC0001234", "SBIN0ABC123"}, []string{"HDFC1001234", "hdfc0001234", "HDF0001234"}},
		{"account", ValidateAccountNumber, []string{"123456789", "123456789012345678"}, []string{"12345678", "1234567890123456789", "12345678a"}},
		{"pincode", ValidatePincode, []string{"560001"}, []string{"56001", "5600011", "56000a"}},
		{"name", ValidateName, []string{"Ann"}, []string{"Al", ""}},
		{"address", ValidateAddress, []string{"MG Rd"}, []string{"MG R"}},
		{"password", ValidatePassword, []string{"Secret#123", "ABCDEFG1~"}, []string{"Sec#12", "secret#123", "Secret1234", "Secret#abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, s := range tt.good {
				assert.NoError(t, tt.fn(s), s)
			}
			for _, s := range tt.bad {
				assert.Error(t, tt.fn(s), s)
			}
		})
	}
}

func TestRegistrationValidate(t *testing.T) {
	err := Registration{Name: "Asha", PAN: "ABCDE1234F", Email: "asha@example.com", Mobile: "9876543210", DOB: "1990-01-01", Address: "12 MG Road", Password: "Secret#123", ConfirmPassword: "Secret#124"}.Validate()
	require.Error(t, err)

	problems, ok := err.(ValidationErrors)
	require.True(t, ok)
	assert.Equal(t, "Passwords do not match", problems.For("confirmPassword"))
	assert.Equal(t, "You must accept the Terms & Conditions", problems.For("terms"))
	assert.Empty(t, problems.For("pan"))
	assert.Len(t, problems, 2)
}

func TestBankAccountValidate(t *testing.T) {
	assert.NoError(t, BankAccount{AccountNo: "123456789012", IFSC: "HDFC0001234"}.Validate())

	err := BankAccount{AccountNo: "12", IFSC: "nope"}.Validate()
	require.Error(t, err)
	assert.Equal(t, "account_no: Account number must be 9 to 18 digits, ifsc: Invalid IFSC code (e.g., HDFC0001234)", err.Error())
}

func TestAdminRegistrationValidate(t *testing.T) {
	assert.NoError(t, AdminRegistration{Name: "Ravi", Email: "ravi@rta.in", Role: "admin", Password: "Secret#123"}.Validate())

	err := AdminRegistration{Name: "Ravi", Email: "ravi@rta.in", Password: "Secret#123"}.Validate()
	require.Error(t, err)
	assert.Equal(t, "role: Role is required", err.Error())
}
