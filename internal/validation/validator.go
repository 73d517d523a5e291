// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// MaxSenderIDLength bounds sender identifiers (the length of an email address).
const MaxSenderIDLength = 254

// FieldError is one failed constraint, named by its JSON field.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Message string
}

// RequestValidationError collects every failed constraint of one value.
type RequestValidationError struct {
	errors []FieldError
}

// Errors returns the failed constraints in declaration order.
func (ve *RequestValidationError) Errors() []FieldError {
	return ve.errors
}

func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}
	return strings.Join(ve.messages(), "; ")
}

func (ve *RequestValidationError) messages() []string {
	out := make([]string, len(ve.errors))
	for i, fe := range ve.errors {
		out[i] = fe.Message
	}
	return out
}

// APIError mirrors models.APIError without importing it.
type APIError struct {
	Code    string
	Message string
	Details map[string]any
}

// ToAPIError renders the errors as a VALIDATION_ERROR. A single error
// reports field and tag directly; several are listed under "fields".
func (ve *RequestValidationError) ToAPIError() *APIError {
	apiErr := &APIError{Code: "VALIDATION_ERROR", Message: "Validation failed"}
	switch len(ve.errors) {
	case 0:
	case 1:
		fe := ve.errors[0]
		apiErr.Message = fe.Message
		apiErr.Details = map[string]any{"field": fe.Field, "tag": fe.Tag}
	default:
		fields := make([]map[string]any, len(ve.errors))
		for i, fe := range ve.errors {
			fields[i] = map[string]any{"field": fe.Field, "tag": fe.Tag, "message": fe.Message}
		}
		apiErr.Message = ve.Error()
		apiErr.Details = map[string]any{"fields": fields}
	}
	return apiErr
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// GetValidator returns the shared validator. Struct errors are reported
// under JSON field names and the senderid tag is registered.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonFieldName)
		// Registration only fails for an empty tag or nil func.
		_ = validate.RegisterValidation("senderid", validSenderID)
	})
	return validate
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}

// validSenderID accepts a non-blank identifier of at most
// MaxSenderIDLength bytes without control characters.
func validSenderID(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if strings.TrimSpace(s) == "" || len(s) > MaxSenderIDLength {
		return false
	}
	return strings.IndexFunc(s, unicode.IsControl) < 0
}

// ValidateStruct checks s against its validate tags; nil means valid.
func ValidateStruct(s any) *RequestValidationError {
	return collect(GetValidator().Struct(s), "")
}

// ValidateVar checks one value against tag, reporting failures as field.
func ValidateVar(field string, value any, tag string) *RequestValidationError {
	return collect(GetValidator().Var(value, tag), field)
}

// collect converts a validator result. A non-empty field overrides the
// field name, which Var leaves blank.
func collect(err error, field string) *RequestValidationError {
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		if field == "" {
			field = "unknown"
		}
		return &RequestValidationError{errors: []FieldError{{Field: field, Tag: "unknown", Message: err.Error()}}}
	}

	out := make([]FieldError, len(fieldErrs))
	for i, fe := range fieldErrs {
		name := fe.Field()
		if field != "" {
			name = field
		}
		out[i] = FieldError{Field: name, Tag: fe.Tag(), Param: fe.Param(), Message: describe(name, fe)}
	}
	return &RequestValidationError{errors: out}
}

var fixedMessages = map[string]string{
	"required":  "is required",
	"senderid":  "must be a non-blank identifier without control characters",
	"latitude":  "must be a valid latitude (-90 to 90)",
	"longitude": "must be a valid longitude (-180 to 180)",
	"url":       "must be a valid URL",
}

var paramMessages = map[string]string{
	"oneof": "must be one of: %s",
	"gte":   "must be greater than or equal to %s",
	"lte":   "must be less than or equal to %s",
	"gt":    "must be greater than %s",
	"lt":    "must be less than %s",
}

func describe(field string, fe validator.FieldError) string {
	tag, param := fe.Tag(), fe.Param()
	if msg, ok := fixedMessages[tag]; ok {
		return field + " " + msg
	}
	if format, ok := paramMessages[tag]; ok {
		return field + " " + fmt.Sprintf(format, param)
	}

	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}
	switch tag {
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", field, param, unit)
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", field, param, unit)
	}
	return fmt.Sprintf("%s failed %s validation", field, tag)
}
