// Package response предоставляет утилиты для формирования стандартных
// JSON-ответов HTTP API.
package response

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Response - базовая структура всех JSON-ответов. Fields заполняется,
// когда ошибка относится к конкретным полям формы.
type Response struct {
	Status string            `json:"status"`
	Error  string            `json:"error,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

const (
	StatusOK    = "OK"
	StatusError = "Error"
)

func OK() Response {
	return Response{
		Status: StatusOK,
	}
}

func Error(msg string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
	}
}

// FieldErrors возвращает ответ с сообщением для каждого неверного поля.
func FieldErrors(msg string, fields map[string]string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
		Fields: fields,
	}
}

// ValidationError переводит ошибки `go-playground/validator` в ответ
// с сообщением по каждому полю.
func ValidationError(errs validator.ValidationErrors) Response {
	errMsgs := make([]string, 0, len(errs))
	fields := make(map[string]string, len(errs))

	for _, err := range errs {
		var msg string

		switch err.ActualTag() {
		case "required":
			msg = fmt.Sprintf("field %s is a required field", err.Field())
		case "oneof":
			msg = fmt.Sprintf("field %s must be one of [%s]", err.Field(), err.Param())
		case "gt", "gte", "min":
			msg = fmt.Sprintf("field %s must be at least %s", err.Field(), err.Param())
		case "dive":
			msg = fmt.Sprintf("field %s has an invalid element", err.Field())
		default:
			msg = fmt.Sprintf("field %s is not valid", err.Field())
		}

		errMsgs = append(errMsgs, msg)
		fields[err.Field()] = msg
	}

	return Response{
		Status: StatusError,
		Error:  strings.Join(errMsgs, ", "),
		Fields: fields,
	}
}
