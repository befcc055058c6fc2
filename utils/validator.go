package utils

import (
	"time"

	validator "gopkg.in/go-playground/validator.v9"
)

var validate = validator.New()

func init() {
	validate.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(time.DateOnly, fl.Field().String())
		return err == nil
	})
}

// Validate validates the passed in struct using our shared validator instance
func Validate(obj any) error {
	return validate.Struct(obj)
}
