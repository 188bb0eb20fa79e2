package checkout

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrValidationFailed = errors.New("checkout: validation failed")

// ValidationError содержит ошибки, которые покупатель может исправить, по полям формы.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := slices.Sorted(maps.Keys(e.Fields))

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}

	return ErrValidationFailed.Error() + ": " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

const (
	FieldFullName       = "full_name"
	FieldPhone          = "phone"
	FieldAddress        = "address"
	FieldDeliveryOption = "delivery_option"
	FieldPaymentMethod  = "payment_method"
	FieldCart           = "cart"
)

var cubanPhone = regexp.MustCompile(`^(?:\+?53)?(?:[5-9]\d{7}|[2-4]\d{6,7})$`)

var phoneNoise = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", "\t", "")

// NormalizePhone убирает пробелы, дефисы и скобки.
func NormalizePhone(phone string) string {
	return phoneNoise.Replace(strings.TrimSpace(phone))
}

// IsCubanPhone принимает необязательный префикс +53/53 и мобильный номер
// (5-9 и ещё семь цифр) или городской (2-4 и ещё шесть или семь цифр).
func IsCubanPhone(phone string) bool {
	return cubanPhone.MatchString(NormalizePhone(phone))
}

type form struct {
	FullName       string `json:"full_name" validate:"required"`
	Phone          string `json:"phone" validate:"required,cuphone"`
	Address        string `json:"address" validate:"required_unless=DeliveryOption pickup"`
	DeliveryOption string `json:"delivery_option" validate:"required"`
	PaymentMethod  string `json:"payment_method" validate:"omitempty,oneof=cash transfer"`
}

var messages = map[string]string{
	FieldFullName:       "el nombre completo es obligatorio",
	FieldAddress:        "la dirección es obligatoria para la entrega a domicilio",
	FieldDeliveryOption: "seleccione una opción de entrega",
	FieldPaymentMethod:  "forma de pago no válida",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	// регистрация падает только на пустом теге или nil-функции
	_ = v.RegisterValidation("cuphone", func(fl validator.FieldLevel) bool {
		return IsCubanPhone(fl.Field().String())
	})

	return v
}

func fieldErrors(errs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(errs))

	for _, err := range errs {
		field := err.Field()

		if field == FieldPhone {
			switch err.ActualTag() {
			case "required":
				fields[field] = "el teléfono es obligatorio"
			default:
				fields[field] = "el teléfono no es un número cubano válido"
			}

			continue
		}

		msg, ok := messages[field]
		if !ok {
			msg = fmt.Sprintf("el campo %s no es válido", field)
		}

		fields[field] = msg
	}

	return fields
}
