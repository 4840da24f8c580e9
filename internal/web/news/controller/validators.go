package controller

import (
	"reflect"
	"strings"
	"sync"

	"github.com/Laisky/errors/v2"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/multilingual-news/internal/library/i18n"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators add the `objectid` and `langcode` tags to gin's binding validator,
// and report json field names in validation errors
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("binding validator is not go-playground/validator")
			return
		}

		v.RegisterTagNameFunc(jsonFieldName)
		if err := v.RegisterValidation("objectid", validObjectID); err != nil {
			registerErr = errors.Wrap(err, "register objectid")
			return
		}
		if err := v.RegisterValidation("langcode", validLangCode); err != nil {
			registerErr = errors.Wrap(err, "register langcode")
			return
		}
	})

	return registerErr
}

func jsonFieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

func validObjectID(fl validator.FieldLevel) bool {
	return primitive.IsValidObjectID(strings.TrimSpace(fl.Field().String()))
}

func validLangCode(fl validator.FieldLevel) bool {
	return i18n.ValidCode(i18n.NormalizeCode(fl.Field().String()))
}
