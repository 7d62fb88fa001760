package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// msisdnRegex accepts E.164-like numbers: a leading "+" then digits.
var msisdnRegex = regexp.MustCompile(`^\+[0-9]+$`)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterValidation("msisdn", func(fl validator.FieldLevel) bool {
		return msisdnRegex.MatchString(fl.Field().String())
	})
	v.RegisterValidation("utc_timestamp", func(fl validator.FieldLevel) bool {
		return isUTCTimestamp(fl.Field().String())
	})

	return v
}

// isUTCTimestamp reports whether s is an RFC 3339 timestamp in UTC ("Z").
func isUTCTimestamp(s string) bool {
	if !strings.HasSuffix(s, "Z") {
		return false
	}
	_, err := time.Parse(time.RFC3339Nano, s)
	return err == nil
}

// fieldErrors converts validator output into response details.
func fieldErrors(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "body", Message: err.Error()}}
	}

	details := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return details
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "msisdn":
		return "must be in E.164 format (start with +, followed by digits)"
	case "utc_timestamp":
		return "must be an ISO-8601 UTC timestamp ending in Z"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
