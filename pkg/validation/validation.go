package validation

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var v *validator.Validate

func init() {
	v = validator.New()

	// Use the JSON tag as the field name in error output
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	// Custom: RFC 3339 datetime string (what the clients send for dates)
	_ = v.RegisterValidation("rfc3339", func(fl validator.FieldLevel) bool {
		val := strings.TrimSpace(fl.Field().String())
		if val == "" { // let omitempty handle empty
			return true
		}
		_, err := time.Parse(time.RFC3339, val)
		return err == nil
	})
}

// Validate returns map[field][]messages, nil when the struct is valid.
// Messages are in Spanish; they go straight to API clients.
func Validate(s any) (map[string][]string, error) {
	if err := v.Struct(s); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok {
			return nil, err
		}
		out := make(map[string][]string)
		for _, e := range ve {
			field := e.Field() // already mapped from json tag

			switch e.Tag() {
			case "required":
				out[field] = append(out[field], "Este campo es requerido")

			case "email":
				out[field] = append(out[field], "Formato de email inválido")

			case "min":
				if e.Kind() == reflect.String {
					out[field] = append(out[field], fmt.Sprintf("Debe tener al menos %s caracteres", e.Param()))
				} else {
					out[field] = append(out[field], fmt.Sprintf("Debe ser al menos %s", e.Param()))
				}

			case "max":
				if e.Kind() == reflect.String {
					out[field] = append(out[field], fmt.Sprintf("Debe tener como máximo %s caracteres", e.Param()))
				} else {
					out[field] = append(out[field], fmt.Sprintf("Debe ser como máximo %s", e.Param()))
				}

			case "oneof":
				out[field] = append(out[field], "Valor no permitido")

			case "uuid", "uuid4":
				out[field] = append(out[field], "Formato de UUID inválido")

			case "gte":
				out[field] = append(out[field], fmt.Sprintf("Debe ser mayor o igual a %s", e.Param()))

			case "lte":
				out[field] = append(out[field], fmt.Sprintf("Debe ser menor o igual a %s", e.Param()))

			case "rfc3339":
				out[field] = append(out[field], "Debe ser una fecha en formato RFC 3339")

			default:
				// Fall back to the original error text if we missed a tag
				out[field] = append(out[field], e.Error())
			}
		}
		return out, nil
	}
	return nil, nil
}
