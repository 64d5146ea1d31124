package server

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	enrollmentdomain "github.com/littleoaks/sprout/internal/enrollment/domain"
	invoicedomain "github.com/littleoaks/sprout/internal/invoice/domain"
	paymentdomain "github.com/littleoaks/sprout/internal/payment/domain"
)

// registerValidations installs billing-specific rules on gin's validator so
// request structs can declare them in binding tags.
func registerValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	_ = v.RegisterValidation("schedule_type", func(fl validator.FieldLevel) bool {
		return enrollmentdomain.ValidScheduleType(fl.Field().String())
	})
	_ = v.RegisterValidation("item_type", func(fl validator.FieldLevel) bool {
		return invoicedomain.ValidItemType(fl.Field().String())
	})
	_ = v.RegisterValidation("payment_method", func(fl validator.FieldLevel) bool {
		return paymentdomain.ValidMethod(fl.Field().String())
	})
}
