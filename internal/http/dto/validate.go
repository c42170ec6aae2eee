package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/gorilla/schema"
)

var (
	validate      = newValidator()
	schemaDecoder = newSchemaDecoder()
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report fields by their wire names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

func newSchemaDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// createTaskInput is the raw shape of a create request. Pointers tell an
// omitted field apart from its zero value.
type createTaskInput struct {
	Title     *string `json:"title" schema:"title" validate:"required,notblank"`
	Completed *bool   `json:"completed" schema:"completed"`
}

type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every offending field of a rejected request.
// Input that cannot be parsed at all is reported against "body".
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Details() map[string]string {
	details := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		details[f.Field] = f.Message
	}
	return details
}

// add keeps the first message reported for a field.
func (e *ValidationError) add(field, message string) {
	for _, f := range e.Fields {
		if f.Field == field {
			return
		}
	}
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// ValidateCreate parses a JSON create request. Unknown fields are ignored;
// an omitted or null "completed" defaults to false.
func ValidateCreate(raw []byte) (CreateTaskRequest, error) {
	verr := &ValidationError{}

	if len(bytes.TrimSpace(raw)) == 0 {
		verr.add("body", "required")
		return CreateTaskRequest{}, verr
	}

	var in createTaskInput
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&in); err != nil {
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &typeErr) && typeErr.Field != "":
			// decoding carries on past a mistyped field, keep checking the rest
			verr.add(typeErr.Field, typeMessage(typeErr.Type))
		case errors.As(err, &typeErr):
			verr.add("body", "must be a JSON object")
			return CreateTaskRequest{}, verr
		default:
			verr.add("body", "invalid JSON")
			return CreateTaskRequest{}, verr
		}
	}
	if _, err := dec.Token(); err != io.EOF {
		verr.add("body", "invalid JSON")
		return CreateTaskRequest{}, verr
	}

	return finish(in, verr)
}

// ValidateCreateForm applies the same rules to a form-encoded request.
func ValidateCreateForm(values url.Values) (CreateTaskRequest, error) {
	verr := &ValidationError{}

	var in createTaskInput
	if err := schemaDecoder.Decode(&in, values); err != nil {
		var multi schema.MultiError
		if !errors.As(err, &multi) {
			verr.add("body", "invalid form")
			return CreateTaskRequest{}, verr
		}

		keys := make([]string, 0, len(multi))
		for key := range multi {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			var convErr schema.ConversionError
			if errors.As(multi[key], &convErr) {
				verr.add(key, typeMessage(convErr.Type))
				continue
			}
			verr.add(key, "is invalid")
		}
	}

	return finish(in, verr)
}

func finish(in createTaskInput, verr *ValidationError) (CreateTaskRequest, error) {
	if err := validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return CreateTaskRequest{}, err
		}
		for _, fe := range fieldErrs {
			verr.add(fe.Field(), formatFieldError(fe))
		}
	}

	if len(verr.Fields) > 0 {
		return CreateTaskRequest{}, verr
	}

	req := CreateTaskRequest{Title: *in.Title}
	if in.Completed != nil {
		req.Completed = *in.Completed
	}
	return req, nil
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "notblank":
		return "must not be blank"
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("failed %s=%s validation", fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func typeMessage(t reflect.Type) string {
	if t == nil {
		return "has an invalid type"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.String:
		return "must be a string"
	case reflect.Bool:
		return "must be a boolean"
	case reflect.Struct, reflect.Map:
		return "must be an object"
	default:
		return "has an invalid type"
	}
}
