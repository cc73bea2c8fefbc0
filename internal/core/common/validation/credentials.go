package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	errors "github.com/blitztech/access-management/internal"
)

// Identity is the read-only account identity consumed by the password
// policy to reject passwords built from personal information.
type Identity struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
}

func (i Identity) fragments(minLen int) []string {
	local := ""
	if at := strings.Index(i.Email, "@"); at > 0 {
		local = i.Email[:at]
	}
	candidates := []string{i.Username, i.FirstName, i.LastName, local}
	var out []string
	for _, c := range candidates {
		c = strings.ToLower(c)
		if len(c) >= minLen {
			out = append(out, c)
		}
	}
	return out
}

// PasswordPolicy validates password strength. All rules are evaluated and
// every distinct violation is reported together; nothing short-circuits.
type PasswordPolicy struct {
	SpecialRunes        string
	Blocklist           []string
	KeyboardPatterns    []string
	MinIdentityFragment int
	MinLength           int
}

func NewPasswordPolicy(cfg errors.PolicyConfig) *PasswordPolicy {
	special := cfg.PasswordSpecialRunes
	if special == "" {
		special = errors.DefaultPasswordSpecialRunes
	}
	minFrag := cfg.MinIdentityFragment
	if minFrag <= 0 {
		minFrag = 3
	}
	minLen := cfg.PasswordMinimumLength
	if minLen <= 0 {
		minLen = 8
	}
	return &PasswordPolicy{
		SpecialRunes:        special,
		Blocklist:           cfg.PasswordBlocklist,
		KeyboardPatterns:    cfg.KeyboardPatterns,
		MinIdentityFragment: minFrag,
		MinLength:           minLen,
	}
}

func (p *PasswordPolicy) Validate(password string, identity Identity) *errors.AppError {
	var violations []errors.ValidationError

	add := func(message string, code errors.ErrorCode) {
		violations = append(violations, errors.ValidationError{
			Field:   "password",
			Message: message,
			Code:    string(code),
		})
	}

	if p.MinLength > 0 && len([]rune(password)) < p.MinLength {
		add(fmt.Sprintf("Password must be at least %d characters long.", p.MinLength), errors.ErrCodeInvalidPassword)
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(p.SpecialRunes, r):
			hasSpecial = true
		}
	}

	if !hasUpper {
		add("Password must contain at least one uppercase letter.", errors.ErrCodeInvalidPassword)
	}
	if !hasLower {
		add("Password must contain at least one lowercase letter.", errors.ErrCodeInvalidPassword)
	}
	if !hasDigit {
		add("Password must contain at least one digit.", errors.ErrCodeInvalidPassword)
	}
	if !hasSpecial {
		add(fmt.Sprintf("Password must contain at least one special character (%s).", p.SpecialRunes), errors.ErrCodeInvalidPassword)
	}

	lower := strings.ToLower(password)
	for _, word := range p.Blocklist {
		if word != "" && strings.Contains(lower, strings.ToLower(word)) {
			add(fmt.Sprintf("Password cannot contain %q.", word), errors.ErrCodeInvalidPassword)
		}
	}

	for _, pattern := range p.KeyboardPatterns {
		if pattern != "" && strings.Contains(lower, strings.ToLower(pattern)) {
			add("Password cannot contain common keyboard patterns.", errors.ErrCodeInvalidPassword)
			break
		}
	}

	for _, fragment := range identity.fragments(p.MinIdentityFragment) {
		if strings.Contains(lower, fragment) {
			add("Password cannot be based on your personal information.", errors.ErrCodeInvalidPassword)
			break
		}
	}

	if len(violations) > 0 {
		return errors.NewValidationError("Password does not meet policy", errors.ErrCodeInvalidPassword).
			WithDetails(errors.ValidationErrors{Errors: violations})
	}
	return nil
}

// PhonePolicy validates phone numbers for the configured country's
// numbering plan. Separators are stripped before matching.
type PhonePolicy struct {
	patterns []*regexp.Regexp
}

var phoneSeparators = regexp.MustCompile(`[\s\-\(\)]`)

func NewPhonePolicy(countryCode string) *PhonePolicy {
	if countryCode == "" {
		countryCode = "263"
	}
	return &PhonePolicy{
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`^\+` + countryCode + `[0-9]{9}$`),
			regexp.MustCompile(`^0[0-9]{9}$`),
			regexp.MustCompile(`^` + countryCode + `[0-9]{9}$`),
		},
	}
}

func (p *PhonePolicy) IsValid(phone string) bool {
	return p.Validate(phone) == nil
}

func (p *PhonePolicy) Validate(phone string) *errors.AppError {
	clean := phoneSeparators.ReplaceAllString(phone, "")

	for _, pattern := range p.patterns {
		if pattern.MatchString(clean) {
			return nil
		}
	}

	return errors.NewValidationFieldError("phone",
		"Please enter a valid phone number. Examples: +263771234567, 0771234567",
		errors.ErrCodeInvalidPhone)
}

// EmailPolicy rejects disposable-mail domains and, for employee
// accounts, requires a company domain.
type EmailPolicy struct {
	BlockedDomains  []string
	EmployeeDomains []string
}

func NewEmailPolicy(cfg errors.PolicyConfig) *EmailPolicy {
	return &EmailPolicy{
		BlockedDomains:  cfg.BlockedEmailDomains,
		EmployeeDomains: cfg.EmployeeEmailDomains,
	}
}

func (p *EmailPolicy) Validate(email, userType string) *errors.AppError {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return errors.NewValidationFieldError("email", "Please enter a valid email address.", errors.ErrCodeInvalidEmail)
	}
	domain := strings.ToLower(email[at+1:])

	for _, blocked := range p.BlockedDomains {
		if domain == strings.ToLower(blocked) {
			return errors.NewValidationFieldError("email",
				fmt.Sprintf("Email addresses from %s are not allowed. Please use a business or personal email address.", domain),
				errors.ErrCodeBlockedDomain)
		}
	}

	if userType == "employee" && len(p.EmployeeDomains) > 0 {
		for _, allowed := range p.EmployeeDomains {
			if domain == strings.ToLower(allowed) {
				return nil
			}
		}
		return errors.NewValidationFieldError("email",
			fmt.Sprintf("Employee email addresses must be from: %s", strings.Join(p.EmployeeDomains, ", ")),
			errors.ErrCodeEmployeeDomain)
	}

	return nil
}
