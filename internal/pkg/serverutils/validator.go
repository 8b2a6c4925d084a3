package serverutils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"subscription-cancel-be/internal/pkg/apperror"
	"subscription-cancel-be/pkg/experiment"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation("bucket", validateBucket)
}

// validateBucket accepts the two downsell variants, "A" or "B".
func validateBucket(fl validator.FieldLevel) bool {
	_, ok := experiment.ParseBucket(fl.Field().String())
	return ok
}

// ValidateRequest runs the struct's validate tags. The first failure becomes
// a validation error; a field may override its message with an "errmsg" tag.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.Validation(err.Error())
	}
	return apperror.Validation(messageFor(req, verrs[0]))
}

func messageFor(req interface{}, fe validator.FieldError) string {
	if msg := errMsgTag(req, fe.StructField()); msg != "" {
		return msg
	}
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " required"
	case "email":
		return "invalid " + field
	}
	return fmt.Sprintf("invalid %s", field)
}

func errMsgTag(req interface{}, structField string) string {
	t := reflect.TypeOf(req)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return ""
	}
	f, ok := t.FieldByName(structField)
	if !ok {
		return ""
	}
	return f.Tag.Get("errmsg")
}
