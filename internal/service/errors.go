package service

import (
	"errors"
	"fmt"
)

const CodeNotFound = "NOT_FOUND"
const CodeValidation = "VALIDATION_ERROR"

// BusinessError - ошибки, о которых можно рассказать клиенту.
// Всё остальное считается внутренней ошибкой и наружу не раскрывается
type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

type Detail struct {
	Key     string
	Payload any
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

func ToDetail(key string, payload any) Detail {
	return Detail{
		Key:     key,
		Payload: payload,
	}
}

func NewBusinessError(code string, message string, details ...Detail) *BusinessError {
	busErr := &BusinessError{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}

	for _, detail := range details {
		busErr.Details[detail.Key] = detail.Payload
	}

	return busErr
}

func NewNotFound(resource, id string) *BusinessError {
	return NewBusinessError(CodeNotFound,
		fmt.Sprintf("%s %s не найден(а)", resource, id),
		ToDetail("resource", resource),
		ToDetail("id", id),
	)
}

func NewValidationError(field, reason string) *BusinessError {
	busErr := NewValidationErrors(map[string]string{field: reason})
	busErr.Message = fmt.Sprintf("Неверное значение поля '%s': %s", field, reason)
	return busErr
}

func NewValidationErrors(fields map[string]string) *BusinessError {
	return NewBusinessError(CodeValidation, "Ошибка валидации", ToDetail("fields", fields))
}

func AsBusinessError(err error) (*BusinessError, bool) {
	var busErr *BusinessError
	if errors.As(err, &busErr) {
		return busErr, true
	}
	return nil, false
}

func IsNotFound(err error) bool {
	busErr, ok := AsBusinessError(err)
	return ok && busErr.Code == CodeNotFound
}

func IsValidation(err error) bool {
	busErr, ok := AsBusinessError(err)
	return ok && busErr.Code == CodeValidation
}
