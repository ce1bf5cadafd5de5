package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// FieldErrors mirrors the response shape the frontend renders inline:
// field name -> list of messages.
type FieldErrors map[string][]string

func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

var (
	usernameRe   = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	membershipRe = regexp.MustCompile(`^[A-Z0-9]+$`)
	phoneRe      = regexp.MustCompile(`^[+]?[0-9\s\-()]+$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("membership_number", func(fl validator.FieldLevel) bool {
		return membershipRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("phone_shape", func(fl validator.FieldLevel) bool {
		return phoneRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("completion_year", func(fl validator.FieldLevel) bool {
		year := int(fl.Field().Int())
		return year >= 1980 && year <= time.Now().Year()
	})

	return v
}

// Struct validates a request payload against its schema tags and
// returns nil when it passes.
func Struct(s interface{}) FieldErrors {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errs := FieldErrors{}
	vErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs.Add("request", "invalid request payload")
		return errs
	}

	for _, fe := range vErrs {
		errs.Add(fieldName(fe), message(fe))
	}
	return errs
}

// fieldName strips the root struct from the namespace so nested list
// items read like experiences[0].end_date.
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	field := humanize(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "required_if":
		return fmt.Sprintf("%s is required for non-current positions", field)
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Select at least %s %s", fe.Param(), strings.ToLower(field))
		}
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Select at most %s %s", fe.Param(), strings.ToLower(field))
		}
		return fmt.Sprintf("%s must be less than %s characters", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or more", field, fe.Param())
	case "email":
		return fmt.Sprintf("Please enter a valid %s", strings.ToLower(field))
	case "username":
		return "Username can only contain letters, numbers, hyphens and underscores"
	case "membership_number":
		return "Membership number should contain only uppercase letters and numbers"
	case "phone_shape":
		return "Invalid phone number format"
	case "completion_year":
		return "Please enter a valid year"
	default:
		return fmt.Sprintf("Invalid %s", strings.ToLower(field))
	}
}

func humanize(field string) string {
	field = strings.ReplaceAll(field, "_", " ")
	if field == "" {
		return field
	}
	return strings.ToUpper(field[:1]) + field[1:]
}
