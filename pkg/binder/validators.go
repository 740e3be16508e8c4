package binder

import (
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/mindnestapp/mindnest/pkg/models"
)

var otpCodeRE = regexp.MustCompile(`^\d{6}$`)

// otpCodeValidator ensures the value is a six digit numeric code or the empty
// string. The empty string is allowed so the validator composes with
// `omitempty`; add `required` to the validate tag when the code is mandatory.
func otpCodeValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return otpCodeRE.MatchString(value)
}

// roleValidator ensures the value names one of the platform roles.
func roleValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch value {
	case models.RoleStudent, models.RoleParent, models.RoleTherapist, models.RoleAdmin:
		return true
	}
	return false
}
