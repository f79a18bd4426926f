package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks field rules (struct tags) and the cross-section rules the
// tags cannot express. Every returned error wraps ErrInvalid.
func Validate(cfg *Config) error {
	var problems []string

	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		for _, fe := range fieldErrs {
			problems = append(problems, describeFieldError(fe))
		}
	}

	gen := cfg.Generation
	if !gen.EndDate.After(gen.StartDate.Time) {
		problems = append(problems, fmt.Sprintf("generation.end_date (%s) must be after start_date (%s)",
			gen.EndDate.Format("2006-01-02"), gen.StartDate.Format("2006-01-02")))
	}
	if gen.BusinessHours.Open >= gen.BusinessHours.Close {
		problems = append(problems, fmt.Sprintf("generation.business_hours: open (%d) must be before close (%d)",
			gen.BusinessHours.Open, gen.BusinessHours.Close))
	}
	if cfg.Tiers.RiskyFraction+cfg.Tiers.StarFraction > 1 {
		problems = append(problems, "tiers: risky_fraction + star_fraction must not exceed 1")
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w:\n  - %s", ErrInvalid, strings.Join(problems, "\n  - "))
}

// describeFieldError renders one validator failure with its YAML-ish path.
func describeFieldError(fe validator.FieldError) string {
	path := fe.Namespace()
	if i := strings.Index(path, "."); i >= 0 {
		path = path[i+1:]
	}
	if fe.Param() != "" {
		return fmt.Sprintf("%s: failed '%s=%s' (value: %v)", path, fe.Tag(), fe.Param(), fe.Value())
	}
	return fmt.Sprintf("%s: failed '%s' (value: %v)", path, fe.Tag(), fe.Value())
}
