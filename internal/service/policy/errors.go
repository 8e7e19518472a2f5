package policy

import "errors"

var (
	// ErrInvalidPolicy возвращается при некорректной конфигурации тарифов отмены
	ErrInvalidPolicy = errors.New("policy: invalid cancellation policy")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("policy: internal error")
)
