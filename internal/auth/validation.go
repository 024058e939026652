package auth

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	panRegex     = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	emailRegex   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	mobileRegex  = regexp.MustCompile(`^[0-9]{10}$`)
	ifscRegex    = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	accountRegex = regexp.MustCompile(`^[0-9]{9,18}$`)
	pincodeRegex = regexp.MustCompile(`^[0-9]{6}$`)
)

const passwordSpecials = "!@#$%^&*()_-+=<>?{}[]~"

// Each validator has the func(string) error shape so it can be handed
// straight to a form field.

func ValidatePAN(s string) error {
	if !panRegex.MatchString(s) {
		return errors.New("Invalid PAN format (e.g., ABCDE1234F)")
	}
	return nil
}

func ValidateEmail(s string) error {
	if !emailRegex.MatchString(s) {
		return errors.New("Invalid email address")
	}
	return nil
}

func ValidateMobile(s string) error {
	if !mobileRegex.MatchString(s) {
		return errors.New("Mobile number must be 10 digits")
	}
	return nil
}

func ValidateIFSC(s string) error {
	if !ifscRegex.MatchString(s) {
		return errors.New("Invalid IFSC code (e.g., HDFC0001234)")
	}
	return nil
}

func ValidateAccountNumber(s string) error {
	if !accountRegex.MatchString(s) {
		return errors.New("Account number must be 9 to 18 digits")
	}
	return nil
}

func ValidatePincode(s string) error {
	if !pincodeRegex.MatchString(s) {
		return errors.New("Pincode must be 6 digits")
	}
	return nil
}

func ValidateName(s string) error {
	if utf8.RuneCountInString(s) < 3 {
		return errors.New("Full name must be at least 3 characters")
	}
	return nil
}

func ValidateAddress(s string) error {
	if utf8.RuneCountInString(s) < 5 {
		return errors.New("Address is required and should be at least 5 characters")
	}
	return nil
}

func ValidateRequired(label string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(label + " is required")
		}
		return nil
	}
}

// ValidatePassword wants 8+ characters with an uppercase letter, a digit and
// one of the accepted special characters.
func ValidatePassword(s string) error {
	var hasUpper, hasDigit, hasSpecial bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r) && r <= unicode.MaxASCII:
			hasUpper = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(passwordSpecials, r):
			hasSpecial = true
		}
	}
	if utf8.RuneCountInString(s) < 8 || !hasUpper || !hasDigit || !hasSpecial {
		return errors.New("Password must be at least 8 characters and include at least 1 uppercase letter, 1 number, and 1 special character")
	}
	return nil
}

// FieldProblem is a failed check on one form field
type FieldProblem struct {
	Field   string
	Message string
}

// ValidationErrors lists every failed check, in form order
type ValidationErrors []FieldProblem

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, p := range v {
		msgs = append(msgs, p.Field+": "+p.Message)
	}
	return strings.Join(msgs, ", ")
}

// For returns the message for a field, "" if it passed
func (v ValidationErrors) For(field string) string {
	for _, p := range v {
		if p.Field == field {
			return p.Message
		}
	}
	return ""
}

type check struct {
	field string
	value string
	fn    func(string) error
}

func runChecks(checks []check) ValidationErrors {
	var problems ValidationErrors
	for _, c := range checks {
		if err := c.fn(c.value); err != nil {
			problems = append(problems, FieldProblem{Field: c.field, Message: err.Error()})
		}
	}
	return problems
}

// Registration is the investor sign-up form. ConfirmPassword and Terms are
// checked locally and never sent.
type Registration struct {
	Name            string `json:"name"`
	PAN             string `json:"pan"`
	Email           string `json:"email"`
	Mobile          string `json:"mobile"`
	DOB             string `json:"dob"`
	Address         string `json:"address"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"-"`
	Terms           bool   `json:"-"`
}

// Validate returns nil or a ValidationErrors
func (r Registration) Validate() error {
	problems := runChecks([]check{
		{"name", r.Name, ValidateName},
		{"pan", r.PAN, ValidatePAN},
		{"email", r.Email, ValidateEmail},
		{"mobile", r.Mobile, ValidateMobile},
		{"dob", r.DOB, func(s string) error {
			if s == "" {
				return errors.New("Date of Birth is required")
			}
			return nil
		}},
		{"address", r.Address, ValidateAddress},
		{"password", r.Password, ValidatePassword},
	})
	if r.Password != r.ConfirmPassword {
		problems = append(problems, FieldProblem{Field: "confirmPassword", Message: "Passwords do not match"})
	}
	if !r.Terms {
		problems = append(problems, FieldProblem{Field: "terms", Message: "You must accept the Terms & Conditions"})
	}

	if len(problems) > 0 {
		return problems
	}
	return nil
}

// BankAccount is the add/edit bank form
type BankAccount struct {
	AccountNo string `json:"account_no"`
	IFSC      string `json:"ifsc"`
	Branch    string `json:"branch,omitempty"`
}

func (b BankAccount) Validate() error {
	problems := runChecks([]check{
		{"account_no", b.AccountNo, ValidateAccountNumber},
		{"ifsc", b.IFSC, ValidateIFSC},
	})
	if len(problems) > 0 {
		return problems
	}
	return nil
}

// AdminRegistration is the back-office sign-up form
type AdminRegistration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

func (r AdminRegistration) Validate() error {
	problems := runChecks([]check{
		{"name", r.Name, ValidateName},
		{"email", r.Email, ValidateEmail},
		{"role", r.Role, ValidateRequired("Role")},
		{"password", r.Password, ValidatePassword},
	})
	if len(problems) > 0 {
		return problems
	}
	return nil
}
