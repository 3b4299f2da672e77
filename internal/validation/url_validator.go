package validation

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidURL = errors.New("invalid download url")

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("download_url", validateDownloadURL)
}

// Validator exposes the shared instance so other packages can validate
// structs with the same custom tags.
func Validator() *validator.Validate {
	return validate
}

// ValidateURL checks that rawURL is an absolute http(s) URL with a host.
func ValidateURL(rawURL string) error {
	if err := validate.Var(rawURL, "required,download_url"); err != nil {
		return fmt.Errorf("%w %q", ErrInvalidURL, rawURL)
	}
	return nil
}

func validateDownloadURL(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}
