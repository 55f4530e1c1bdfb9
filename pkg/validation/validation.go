package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FormatValidationError 把 gin 绑定阶段的校验错误转换成可读文本
func FormatValidationError(err error) []string {
	var errs []string

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []string{err.Error()}
	}

	for _, e := range validationErrors {
		field := toSnake(e.Field())
		switch e.Tag() {
		case "required":
			errs = append(errs, fmt.Sprintf("%s is required", field))
		case "email":
			errs = append(errs, fmt.Sprintf("%s must be a valid email", field))
		case "gt":
			errs = append(errs, fmt.Sprintf("%s must be greater than %s", field, e.Param()))
		case "gte":
			errs = append(errs, fmt.Sprintf("%s must be at least %s", field, e.Param()))
		case "min":
			errs = append(errs, fmt.Sprintf("%s must have minimum length %s", field, e.Param()))
		case "max":
			errs = append(errs, fmt.Sprintf("%s must have maximum length %s", field, e.Param()))
		default:
			errs = append(errs, fmt.Sprintf("%s is invalid (%s)", field, e.Tag()))
		}
	}
	return errs
}

// Message 多条校验错误合并为一行
func Message(err error) string {
	return strings.Join(FormatValidationError(err), "; ")
}

// UserID -> user_id
func toSnake(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && (runes[i-1] < 'A' || runes[i-1] > 'Z') {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
