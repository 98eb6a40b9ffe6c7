package validator

import (
	"github.com/go-playground/validator/v10"

	"canvango_backend/internal/models"
)

// registerCustomRules attaches domain rules to the validator instance.
func registerCustomRules(v *validator.Validate) error {
	// tripay_status: the closed aggregator status vocabulary.
	return v.RegisterValidation("tripay_status", func(fl validator.FieldLevel) bool {
		return models.TripayStatus(fl.Field().String()).Valid()
	})
}
