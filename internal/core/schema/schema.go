// Package schema is the canonical definition of the User and Customer insert
// payloads. The same structs type the API request bodies and the Go client, so
// both sides validate against identical rules.
package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/crmdesk/crm-api/internal/core/domain"
)

// CustomerPayload carries the customer insert fields. Optional fields are
// pointers so an absent field stays distinguishable from an empty string.
type CustomerPayload struct {
	Name    string  `json:"name"              validate:"required,max=255"`
	Email   string  `json:"email"             validate:"required,email,max=255"`
	Phone   *string `json:"phone,omitempty"   validate:"omitempty,max=50"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=500"`
	Status  *string `json:"status,omitempty"  validate:"omitempty,oneof=Active Inactive"`
	Notes   *string `json:"notes,omitempty"   validate:"omitempty,max=1000"`
}

// UserPayload carries the registration fields.
type UserPayload struct {
	Username string `json:"username" validate:"required,max=255"`
	Password string `json:"password" validate:"required,max=255"`
	Name     string `json:"name"     validate:"max=255"`
}

// LoginPayload carries sign-in credentials.
type LoginPayload struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names so messages line up with the request body.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks any tagged struct and returns a *domain.ValidationError
// listing every failing field.
func Validate(i any) error {
	err := validate.Struct(i)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fieldError(fe)
	}
	return &domain.ValidationError{Fields: fields}
}

// ValidateInsertCustomer validates p and converts it to domain fields. A missing
// status defaults to Active.
func ValidateInsertCustomer(p CustomerPayload) (domain.CustomerFields, error) {
	if err := Validate(p); err != nil {
		return domain.CustomerFields{}, err
	}

	status := domain.StatusActive
	if p.Status != nil {
		status = domain.CustomerStatus(*p.Status)
	}
	return domain.CustomerFields{
		Name:    p.Name,
		Email:   p.Email,
		Phone:   p.Phone,
		Address: p.Address,
		Status:  status,
		Notes:   p.Notes,
	}, nil
}

// ValidateInsertUser validates p and converts it to domain fields. An empty
// display name falls back to the username.
func ValidateInsertUser(p UserPayload) (domain.UserFields, error) {
	if err := Validate(p); err != nil {
		return domain.UserFields{}, err
	}

	name := p.Name
	if strings.TrimSpace(name) == "" {
		name = p.Username
	}
	return domain.UserFields{
		Username: p.Username,
		Password: p.Password,
		Name:     name,
	}, nil
}

// fieldError converts a single FieldError into a human-readable message.
func fieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
