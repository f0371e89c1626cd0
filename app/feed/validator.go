package feed

import (
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Run checks a candidate subscription URL against the rules in order:
// present, absolute http(s) URL, not tracked yet. It never touches the network.
func (v *Validator) Run(rawURL string, existingURLs []string) error {
	candidate := strings.TrimSpace(rawURL)

	if err := v.validate.Var(candidate, "required"); err != nil {
		return NewError(ErrorKindRequiredField, fmt.Errorf("url is required"))
	}

	if err := v.validate.Var(candidate, "http_url"); err != nil {
		return NewError(ErrorKindInvalidURL, fmt.Errorf("url %q is not a valid absolute URL", candidate))
	}

	if slices.Contains(existingURLs, candidate) {
		return NewError(ErrorKindDuplicateFeed, fmt.Errorf("feed %q is already tracked", candidate))
	}

	return nil
}
