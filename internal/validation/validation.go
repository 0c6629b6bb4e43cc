// Package validation runs struct-tag field validation and reports failures as
// models.ValidationError keyed by the field's form name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"riceMarketplace/models"
)

var (
	once sync.Once
	v    *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v = validator.New()
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			if name == "" || name == "-" {
				return strings.ToLower(fld.Name)
			}
			return name
		})
	})
	return v
}

// Struct validates s. It returns nil or a *models.ValidationError.
func Struct(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	ve := &models.ValidationError{}
	for _, fe := range fieldErrs {
		ve.Add(fe.Field(), message(fe))
	}
	return ve
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "eqfield":
		return fmt.Sprintf("Field must be equal to %s.", strings.ToLower(fe.Param()))
	case "oneof":
		return "Not a valid choice."
	case "numeric":
		return "Not a valid decimal value."
	case "number":
		return "Not a valid whole number."
	case "max":
		return fmt.Sprintf("Field cannot be longer than %s characters.", fe.Param())
	default:
		return fmt.Sprintf("Failed %s validation.", fe.Tag())
	}
}
