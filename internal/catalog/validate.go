package catalog

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON name so errors line up with request bodies.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateExternalID checks that a book's external id is present.
func ValidateExternalID(id string) error {
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Fields: []FieldError{{Field: "googleId", Rule: "required"}}}
	}
	return nil
}

// ValidateMetadata checks the fields a newly created book must carry.
func ValidateMetadata(m Metadata) error {
	err := validate.Struct(m)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return invalidf("%v", err)
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		// Namespace is "Metadata.imageLinks.thumbnail"; drop the root.
		_, field, _ := strings.Cut(fe.Namespace(), ".")
		out.Fields = append(out.Fields, FieldError{Field: field, Rule: fe.Tag()})
	}
	return out
}
