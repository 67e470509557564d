package handlers

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/ngenohkevin/circulation/internal/models"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding tags. It must run before any
// route binds a request using them.
func RegisterValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("dateonly", validateDateOnly)
		}
	})
}

func validateDateOnly(fl validator.FieldLevel) bool {
	_, err := time.Parse(models.DateLayout, fl.Field().String())
	return err == nil
}
