package handler

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/lexhub/deadline-api/internal/model"
)

var deadlineCategories = map[model.DeadlineCategory]bool{
	model.DeadlineCategoryResponse:       true,
	model.DeadlineCategoryAppeal:         true,
	model.DeadlineCategoryMotion:         true,
	model.DeadlineCategoryExpertReview:   true,
	model.DeadlineCategoryHearing:        true,
	model.DeadlineCategoryCompliance:     true,
	model.DeadlineCategoryDocumentFiling: true,
	model.DeadlineCategoryOther:          true,
}

// RegisterValidators installs custom binding validators. Call once at
// startup before serving requests.
func RegisterValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("deadline_category", func(fl validator.FieldLevel) bool {
			return deadlineCategories[model.DeadlineCategory(fl.Field().String())]
		})
	}
}
