package domain

import (
	"strconv"
	"strings"

	"go.trai.ch/zerr"
)

// StringType selects the Go representation of Avro strings.
type StringType string

const (
	// StringTypeCharSequence is the default representation and generates Go strings.
	StringTypeCharSequence StringType = "CharSequence"
	// StringTypeString generates Go strings.
	StringTypeString StringType = "String"
	// StringTypeUtf8 generates raw UTF-8 byte slices.
	StringTypeUtf8 StringType = "Utf8"
)

// FieldVisibility controls how record fields are exposed in generated code.
type FieldVisibility string

const (
	// VisibilityPrivate generates unexported fields with exported accessors.
	VisibilityPrivate FieldVisibility = "private"
	// VisibilityPublic generates exported fields.
	VisibilityPublic FieldVisibility = "public"
	// VisibilityPublicDeprecated generates exported fields marked deprecated, plus accessors.
	VisibilityPublicDeprecated FieldVisibility = "public_deprecated"
)

// DefaultPackage is the Go package used for types declared without a namespace.
const DefaultPackage = "avro"

// CompileOptions is the option set shared by every format compiler.
// It is passed by value and never modified during a compilation.
type CompileOptions struct {
	StringType               StringType
	FieldVisibility          FieldVisibility
	EnableDecimalLogicalType bool
	UseNamespace             bool
	GoImportPath             string
	DefaultPackage           string
}

// DefaultCompileOptions returns the documented defaults.
func DefaultCompileOptions() CompileOptions {
	return CompileOptions{
		StringType:               StringTypeCharSequence,
		FieldVisibility:          VisibilityPublicDeprecated,
		EnableDecimalLogicalType: true,
		UseNamespace:             false,
		DefaultPackage:           DefaultPackage,
	}
}

// ParseStringType parses a stringType option value. Matching is case-insensitive.
func ParseStringType(s string) (StringType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "charsequence":
		return StringTypeCharSequence, nil
	case "string":
		return StringTypeString, nil
	case "utf8":
		return StringTypeUtf8, nil
	default:
		return "", zerr.With(zerr.Wrap(ErrInvalidOption, "unknown string type"), "stringType", s)
	}
}

// ParseFieldVisibility parses a fieldVisibility option value. Matching is case-insensitive.
func ParseFieldVisibility(s string) (FieldVisibility, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "public_deprecated":
		return VisibilityPublicDeprecated, nil
	case "public":
		return VisibilityPublic, nil
	case "private":
		return VisibilityPrivate, nil
	default:
		return "", zerr.With(zerr.Wrap(ErrInvalidOption, "unknown field visibility"), "fieldVisibility", s)
	}
}

// Fingerprint returns a stable textual form of the options. Cache entries record it so that
// changing any option invalidates previously generated sources.
func (o CompileOptions) Fingerprint() string {
	var sb strings.Builder
	sb.WriteString(string(o.StringType))
	sb.WriteByte(0)
	sb.WriteString(string(o.FieldVisibility))
	sb.WriteByte(0)
	sb.WriteString(strconv.FormatBool(o.EnableDecimalLogicalType))
	sb.WriteByte(0)
	sb.WriteString(strconv.FormatBool(o.UseNamespace))
	sb.WriteByte(0)
	sb.WriteString(o.GoImportPath)
	sb.WriteByte(0)
	sb.WriteString(o.DefaultPackage)
	return sb.String()
}
