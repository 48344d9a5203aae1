package audio

import (
	"fmt"
	"io"

	"github.com/samber/lo"
)

// Upload is the request-scoped uploaded file as received from a client.
type Upload struct {
	Filename    string
	ContentType string
	// Size is the declared byte count; negative means unknown.
	Size int64
	Body io.Reader
}

// Reason explains why an upload was rejected
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonUnsupportedFormat Reason = "unsupported_format"
	ReasonEmpty             Reason = "empty"
	ReasonOversized         Reason = "oversized"
)

// ValidationResult is the outcome of checking upload metadata
type ValidationResult struct {
	OK     bool
	Reason Reason
	Format Format
	// Message is a human readable explanation for rejections.
	Message string
}

// Validator checks upload metadata against the configured allow-list and size limit.
// It never reads the body.
type Validator struct {
	supported []Format
	maxBytes  int64
}

// NewValidator builds a Validator; supported names are parsed with ParseFormats.
func NewValidator(supported []string, maxBytes int64) *Validator {
	return &Validator{
		supported: lo.Uniq(ParseFormats(supported)),
		maxBytes:  maxBytes,
	}
}

// SupportedFormats returns the allow-list in configuration order
func (v *Validator) SupportedFormats() []Format {
	return append([]Format(nil), v.supported...)
}

// MaxBytes returns the upload size ceiling
func (v *Validator) MaxBytes() int64 {
	return v.maxBytes
}

// Supports reports whether f is in the allow-list
func (v *Validator) Supports(f Format) bool {
	return lo.Contains(v.supported, f)
}

// Validate resolves the declared format and checks size bounds.
// The filename extension wins when present; the content type is consulted
// only when the filename has no extension.
func (v *Validator) Validate(up Upload) ValidationResult {
	format, hasExt := FormatFromFilename(up.Filename)
	if !hasExt {
		format = FormatFromContentType(up.ContentType)
	}

	if format == FormatUnknown || !v.Supports(format) {
		declared := up.Filename
		if !hasExt && up.ContentType != "" {
			declared = up.ContentType
		}
		return ValidationResult{
			Reason: ReasonUnsupportedFormat,
			Format: format,
			Message: fmt.Sprintf("unsupported file type %q, supported formats: %s",
				declared, joinFormats(v.supported)),
		}
	}

	if up.Size == 0 {
		return ValidationResult{
			Reason:  ReasonEmpty,
			Format:  format,
			Message: "uploaded file is empty",
		}
	}

	if v.maxBytes > 0 && up.Size > v.maxBytes {
		return ValidationResult{
			Reason: ReasonOversized,
			Format: format,
			Message: fmt.Sprintf("file too large: %d bytes exceeds the %d byte limit",
				up.Size, v.maxBytes),
		}
	}

	return ValidationResult{OK: true, Format: format}
}

func joinFormats(formats []Format) string {
	out := ""
	for i, f := range formats {
		if i > 0 {
			out += ", "
		}
		out += string(f)
	}
	return out
}
