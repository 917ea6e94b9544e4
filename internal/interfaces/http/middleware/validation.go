package middleware

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/salescrm/backend/internal/domain/sales"
	"github.com/salescrm/backend/internal/interfaces/http/dto"
)

// trPhonePattern accepts 05xx xxx xx xx in the usual spellings, with or without +90
var trPhonePattern = regexp.MustCompile(`^(\+?90)?0?5\d{9}$`)

var phoneSeparators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")

// SetupValidator names fields after their json/form tags and registers the
// contract_no and tr_phone tags
func SetupValidator() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not go-playground/validator")
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
	if err := v.RegisterValidation("contract_no", func(fl validator.FieldLevel) bool {
		return sales.IsValidContractNo(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("tr_phone", func(fl validator.FieldLevel) bool {
		return IsTurkishPhone(fl.Field().String())
	})
}

// IsTurkishPhone reports whether phone is a Turkish mobile number
func IsTurkishPhone(phone string) bool {
	return trPhonePattern.MatchString(phoneSeparators.Replace(strings.TrimSpace(phone)))
}

// ValidationDetails converts binding errors to field details.
// A non-validator error (bad JSON, wrong type) yields a single body entry.
func ValidationDetails(err error) []dto.ValidationDetail {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []dto.ValidationDetail{{Field: "body", Message: "Geçersiz istek gövdesi"}}
	}
	details := make([]dto.ValidationDetail, 0, len(verrs))
	for _, e := range verrs {
		details = append(details, dto.ValidationDetail{
			Field:   e.Field(),
			Message: e.Field() + ": " + validationMessage(e),
		})
	}
	return details
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "zorunlu alan"
	case "email":
		return "geçerli bir e-posta adresi olmalı"
	case "min":
		if e.Kind() == reflect.String {
			return "en az " + e.Param() + " karakter olmalı"
		}
		return "en az " + e.Param() + " olmalı"
	case "max":
		if e.Kind() == reflect.String {
			return "en fazla " + e.Param() + " karakter olmalı"
		}
		return "en fazla " + e.Param() + " olmalı"
	case "uuid":
		return "geçerli bir kimlik olmalı"
	case "oneof":
		return "şunlardan biri olmalı: " + e.Param()
	case "gte":
		return e.Param() + " veya daha büyük olmalı"
	case "lte":
		return e.Param() + " veya daha küçük olmalı"
	case "gt":
		return e.Param() + " değerinden büyük olmalı"
	case "contract_no":
		return "sözleşme numarası geçersiz karakter içeriyor"
	case "tr_phone":
		return "geçerli bir cep telefonu numarası olmalı"
	case "datetime":
		return e.Param() + " biçiminde olmalı"
	default:
		return "geçersiz değer"
	}
}
