package approval

import (
	errors "github.com/blitztech/access-management/internal"
	"github.com/blitztech/access-management/internal/core/common/validation"
	"github.com/blitztech/access-management/internal/profile"
)

type CreateRequestDTO struct {
	RequestType           string `json:"request_type"`
	RequestedReason       string `json:"requested_reason"`
	BusinessJustification string `json:"business_justification,omitempty"`
}

func (r *CreateRequestDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("request_type", r.RequestType).Required()
	validator.Field("requested_reason", r.RequestedReason).Required().MaxLength(1000)
	validator.Field("business_justification", r.BusinessJustification).MaxLength(2000)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	if !profile.IsKnownArea(profile.Area(r.RequestType)) {
		return errors.NewUnknownAreaError(r.RequestType)
	}
	return nil
}

type DecideRequestDTO struct {
	Notes string `json:"notes,omitempty"`
}

func (r *DecideRequestDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("notes", r.Notes).MaxLength(2000)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
