// Package content defines the editable field records for projects, contact info and enquiries.
//
// A nil pointer means "not set" and is stored as NULL. Blank strings are normalised to nil so
// that "not set" and "set to blank" never diverge between the admin client and the API.
package content

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "techlam/internal/errors"
)

var validate = validator.New()

// ProjectFields are the editable fields of a project. Updates replace every field.
type ProjectFields struct {
	Title        string  `json:"title" validate:"max=255"`
	Description  *string `json:"description" validate:"omitempty,max=5000"`
	Category     *string `json:"category" validate:"omitempty,max=100"`
	Location     *string `json:"location" validate:"omitempty,max=255"`
	Capacity     *string `json:"capacity" validate:"omitempty,max=100"`
	ImageURL     *string `json:"image_url" validate:"omitempty,url,max=1024"`
	IsFeatured   *bool   `json:"is_featured"`
	DisplayOrder *int    `json:"display_order"`
}

// Normalize trims every string and turns blank optional values into nil.
func (f ProjectFields) Normalize() ProjectFields {
	f.Title = strings.TrimSpace(f.Title)
	f.Description = NullIfBlank(f.Description)
	f.Category = NullIfBlank(f.Category)
	f.Location = NullIfBlank(f.Location)
	f.Capacity = NullIfBlank(f.Capacity)
	f.ImageURL = NullIfBlank(f.ImageURL)
	return f
}

// Validate checks normalized fields. An empty title is always the first error reported.
func (f ProjectFields) Validate() error {
	if f.Title == "" {
		return apperrors.ErrTitleRequired
	}
	return structError(validate.Struct(f))
}

// Featured returns is_featured with nil treated as false.
func (f ProjectFields) Featured() bool {
	return f.IsFeatured != nil && *f.IsFeatured
}

// Order returns display_order with nil treated as 0.
func (f ProjectFields) Order() int {
	if f.DisplayOrder == nil {
		return 0
	}
	return *f.DisplayOrder
}

// ContactFields are the editable fields of the contact info singleton.
type ContactFields struct {
	Phone           *string `json:"phone" validate:"omitempty,max=64"`
	Email           *string `json:"email" validate:"omitempty,email,max=255"`
	Address         *string `json:"address" validate:"omitempty,max=1000"`
	WhatsApp        *string `json:"whatsapp" validate:"omitempty,max=64"`
	GoogleMapsEmbed *string `json:"google_maps_embed" validate:"omitempty,max=4096"`
}

// Normalize trims every value and turns blank values into nil.
func (f ContactFields) Normalize() ContactFields {
	f.Phone = NullIfBlank(f.Phone)
	f.Email = NullIfBlank(f.Email)
	f.Address = NullIfBlank(f.Address)
	f.WhatsApp = NullIfBlank(f.WhatsApp)
	f.GoogleMapsEmbed = NullIfBlank(f.GoogleMapsEmbed)
	return f
}

// Validate checks normalized fields.
func (f ContactFields) Validate() error {
	return structError(validate.Struct(f))
}

// EnquiryFields is a message submitted through the public contact form.
type EnquiryFields struct {
	Name    string  `json:"name" validate:"required,max=255"`
	Email   string  `json:"email" validate:"required,email,max=255"`
	Phone   *string `json:"phone" validate:"omitempty,max=64"`
	Message string  `json:"message" validate:"required,max=5000"`
}

// Normalize trims every value and turns a blank phone into nil.
func (f EnquiryFields) Normalize() EnquiryFields {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Message = strings.TrimSpace(f.Message)
	f.Phone = NullIfBlank(f.Phone)
	return f
}

// Validate checks normalized fields.
func (f EnquiryFields) Validate() error {
	return structError(validate.Struct(f))
}

// NullIfBlank returns nil for nil or whitespace-only values, otherwise the trimmed value.
func NullIfBlank(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// String returns a pointer to the trimmed form of s, or nil when s is blank.
func String(s string) *string {
	return NullIfBlank(&s)
}

// structError turns the first validator failure into a ValidationError.
func structError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperrors.NewValidationError(jsonName(fe.StructField()), describe(fe))
	}
	return apperrors.NewValidationError("", err.Error())
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}

var jsonNames = map[string]string{
	"ImageURL":        "image_url",
	"IsFeatured":      "is_featured",
	"DisplayOrder":    "display_order",
	"WhatsApp":        "whatsapp",
	"GoogleMapsEmbed": "google_maps_embed",
}

func jsonName(field string) string {
	if name, ok := jsonNames[field]; ok {
		return name
	}
	return strings.ToLower(field)
}
