package api

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"github.com/Veraticus/amo-inventory/internal/common"
	"github.com/Veraticus/amo-inventory/internal/model"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 30
	minPasswordLength = 8
)

var (
	usernameChars         = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
	consecutiveSeparators = regexp.MustCompile(`[._-]{2,}`)
	allDigits             = regexp.MustCompile(`^\d+$`)
	forecastDate          = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// The Validate functions run before any request is sent. They return every
// field problem joined together; errors.Is(err, common.ErrValidation) holds.

// ValidateLogin requires both fields.
func ValidateLogin(creds Credentials) error {
	var errs []error
	if strings.TrimSpace(creds.Username) == "" {
		errs = append(errs, common.NewValidationError("username", "Username is required"))
	}
	if creds.Password == "" {
		errs = append(errs, common.NewValidationError("password", "Password is required"))
	}
	return errors.Join(errs...)
}

// ValidateRegistration applies the signup username and password rules.
func ValidateRegistration(creds Credentials) error {
	var errs []error
	if reason := usernameProblem(creds.Username); reason != "" {
		errs = append(errs, common.NewValidationError("username", reason))
	}
	switch {
	case creds.Password == "":
		errs = append(errs, common.NewValidationError("password", "Password is required"))
	case len(creds.Password) < minPasswordLength:
		errs = append(errs, common.NewValidationError("password", "Password must be at least 8 characters"))
	}
	return errors.Join(errs...)
}

func usernameProblem(u string) string {
	switch {
	case strings.TrimSpace(u) == "":
		return "Username is required"
	case len(u) < minUsernameLength || len(u) > maxUsernameLength:
		return "Username must be 3-30 characters"
	case strings.IndexFunc(u, unicode.IsSpace) >= 0:
		return "Username cannot contain spaces"
	case !usernameChars.MatchString(u):
		return "Use only letters, numbers, dot (.), underscore (_), or hyphen (-)"
	case !isAlphanumeric(u[0]) || !isAlphanumeric(u[len(u)-1]):
		return "Username must start and end with a letter or number"
	case consecutiveSeparators.MatchString(u):
		return "Don't use consecutive separators like '..', '__', or '--'"
	case allDigits.MatchString(u):
		return "Username can't be numbers only"
	}
	return ""
}

func isAlphanumeric(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// ValidateProduct checks a product form. On create, name, category and
// expiry are required; on update only the fields present are checked.
func ValidateProduct(in model.ProductInput, create bool) error {
	var errs []error
	if create || in.Name != nil {
		if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
			errs = append(errs, common.NewValidationError("name", "Product name is required"))
		}
	}
	if create || in.Category != nil {
		if in.Category == nil || strings.TrimSpace(*in.Category) == "" {
			errs = append(errs, common.NewValidationError("category", "Category is required"))
		}
	}
	if in.Price != nil && *in.Price < 0 {
		errs = append(errs, common.NewValidationError("price", "Price must be 0 or greater"))
	}
	if in.Quantity != nil && *in.Quantity < 0 {
		errs = append(errs, common.NewValidationError("quantity", "Quantity must be 0 or greater"))
	}
	if create || in.Expiry != nil {
		switch {
		case in.Expiry == nil || strings.TrimSpace(*in.Expiry) == "":
			errs = append(errs, common.NewValidationError("expiry", "Expiry date is required"))
		default:
			if _, err := model.ParseTimestamp(*in.Expiry, nil); err != nil {
				errs = append(errs, common.NewValidationError("expiry", "Invalid date"))
			}
		}
	}
	return errors.Join(errs...)
}

// ValidateTransaction requires a product, a known type and a positive quantity.
func ValidateTransaction(in model.TransactionInput) error {
	var errs []error
	if strings.TrimSpace(in.ProductName) == "" {
		errs = append(errs, common.NewValidationError("name", "Product is required"))
	}
	if !in.Type.IsValid() {
		errs = append(errs, common.NewValidationError("transaction_type", "Type must be sale or purchase"))
	}
	if in.Quantity <= 0 {
		errs = append(errs, common.NewValidationError("quantity", "Quantity must be greater than 0"))
	}
	return errors.Join(errs...)
}

// ValidateCategory requires name and description on create.
func ValidateCategory(in model.CategoryInput, create bool) error {
	var errs []error
	if create || in.Name != nil {
		if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
			errs = append(errs, common.NewValidationError("name", "Category name is required"))
		}
	}
	if create || in.Description != nil {
		if in.Description == nil || strings.TrimSpace(*in.Description) == "" {
			errs = append(errs, common.NewValidationError("description", "Description is required"))
		}
	}
	if in.Status != nil {
		switch *in.Status {
		case model.CategoryActive, model.CategoryInactive, model.CategoryDeleted:
		default:
			errs = append(errs, common.NewValidationError("status", "Status must be active, inactive or deleted"))
		}
	}
	return errors.Join(errs...)
}

// ValidateForecast checks prediction inputs.
func ValidateForecast(p model.ForecastParams) error {
	var errs []error
	if strings.TrimSpace(p.SKUID) == "" {
		errs = append(errs, common.NewValidationError("sku_id", "SKU is required"))
	}
	if !forecastDate.MatchString(p.Date) {
		errs = append(errs, common.NewValidationError("date", "Date must be YYYY-MM-DD"))
	}
	if p.Rain < 0 {
		errs = append(errs, common.NewValidationError("rain", "Rain must be 0 or greater"))
	}
	if p.Holiday != 0 && p.Holiday != 1 {
		errs = append(errs, common.NewValidationError("holiday", "Holiday must be 0 or 1"))
	}
	return errors.Join(errs...)
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return common.NewValidationError("id", "ID is required")
	}
	return nil
}
