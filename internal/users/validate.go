package users

import (
	"fmt"
	"net/mail"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rohitpal/userhub/backend/internal/models"
)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// passwordSymbols is the fixed punctuation set a password must draw its
// special character from.
const passwordSymbols = `!@#$%^&*(),.?":{}|<>`

// ValidationErrors collects field-level rule violations so callers can
// render per-field feedback. It is returned before any store interaction.
type ValidationErrors map[string][]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

func (v ValidationErrors) add(field, msg string) {
	v[field] = append(v[field], msg)
}

// orNil turns an empty collection into a nil error so callers can use the
// usual err != nil check.
func (v ValidationErrors) orNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

func validateRegister(req models.RegisterRequest) error {
	errs := ValidationErrors{}
	validateUsername(errs, req.Username)
	validateEmail(errs, req.Email)
	validatePassword(errs, req.Password)
	validateOptional(errs, "first_name", req.FirstName, 50)
	validateOptional(errs, "last_name", req.LastName, 50)
	validateOptional(errs, "bio", req.Bio, 256)
	return errs.orNil()
}

// validateUpdate checks only the fields present in the request; absent
// fields are neither validated nor applied.
func validateUpdate(req models.UpdateUserRequest) error {
	errs := ValidationErrors{}
	if req.Username != nil {
		validateUsername(errs, *req.Username)
	}
	if req.Email != nil {
		validateEmail(errs, *req.Email)
	}
	if req.Password != nil {
		validatePassword(errs, *req.Password)
	}
	validateOptional(errs, "first_name", req.FirstName, 50)
	validateOptional(errs, "last_name", req.LastName, 50)
	validateOptional(errs, "bio", req.Bio, 256)
	return errs.orNil()
}

func validateReport(req models.ReportRequest) error {
	errs := ValidationErrors{}
	if req.ReporterID == nil {
		errs.add("reporter_id", "reporter_id is required")
	}
	if req.TargetID == nil {
		errs.add("target_id", "target_id is required")
	}
	if req.Reason == "" {
		errs.add("reason", "reason is required")
	} else if utf8.RuneCountInString(req.Reason) > 250 {
		errs.add("reason", "reason must be at most 250 characters")
	}
	return errs.orNil()
}

func validateUsername(errs ValidationErrors, username string) {
	if username == "" {
		errs.add("username", "username is required")
		return
	}
	if n := utf8.RuneCountInString(username); n < 3 || n > 80 {
		errs.add("username", "username must be between 3 and 80 characters")
	}
	if !usernameRe.MatchString(username) {
		errs.add("username", "username must contain only letters, numbers, and underscores")
	}
}

func validateEmail(errs ValidationErrors, email string) {
	if email == "" {
		errs.add("email", "email is required")
		return
	}
	// Reject display-name forms like "Bob <bob@example.com>": the parsed
	// address must round-trip to the raw input.
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || utf8.RuneCountInString(email) > 120 {
		errs.add("email", "not a valid email address")
	}
}

// validatePassword runs every complexity check independently so the caller
// sees all failures at once, not just the first.
func validatePassword(errs ValidationErrors, password string) {
	if password == "" {
		errs.add("password", "password is required")
		return
	}
	// Bounds count characters, not bytes; multibyte passwords at the
	// upper bound are valid.
	if n := utf8.RuneCountInString(password); n < 8 || n > 128 {
		errs.add("password", "password must be between 8 and 128 characters")
	}
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(passwordSymbols, r):
			hasSymbol = true
		}
	}
	if !hasUpper {
		errs.add("password", "password must contain at least one uppercase letter")
	}
	if !hasLower {
		errs.add("password", "password must contain at least one lowercase letter")
	}
	if !hasDigit {
		errs.add("password", "password must contain at least one number")
	}
	if !hasSymbol {
		errs.add("password", "password must contain at least one special character")
	}
}

func validateOptional(errs ValidationErrors, field string, value *string, max int) {
	if value != nil && utf8.RuneCountInString(*value) > max {
		errs.add(field, fmt.Sprintf("%s must be at most %d characters", field, max))
	}
}
