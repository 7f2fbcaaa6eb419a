package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/example/monthly-attendance/internal/application"
)

const maxRequestBody = 1 << 20

var requestValidator = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeRequest reads a JSON body into dst and validates its struct tags.
// Tag violations come back as *application.ValidationError with localized
// messages; malformed bodies return errBadRequestBody.
func decodeRequest(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequestBody, err)
	}
	return validateRequest(dst)
}

func validateRequest(dst any) error {
	err := requestValidator.Struct(dst)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	vErr := &application.ValidationError{FieldErrors: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		key := fieldPath(fe.Namespace())
		if _, exists := vErr.FieldErrors[key]; exists {
			continue
		}
		vErr.FieldErrors[key] = tagMessage(fe)
	}
	return vErr
}

// fieldPath drops the struct type prefix from a validator namespace.
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func tagMessage(fe validator.FieldError) string {
	label := labelFor(fe.Field())
	switch fe.Tag() {
	case "required":
		return "שדה " + label + " הוא חובה"
	case "email":
		return "כתובת הדואר האלקטרוני אינה תקינה"
	case "max":
		return "שדה " + label + " ארוך מדי"
	case "min":
		return "יש לציין לפחות ערך אחד בשדה " + label
	case "oneof":
		return "שדה " + label + " אינו מוכר"
	default:
		return "הערך בשדה " + label + " אינו תקין"
	}
}

func isBadRequestBody(err error) bool {
	return errors.Is(err, errBadRequestBody)
}
