package payments

import "errors"

var (
	// ErrPaymentDeclined возвращается, когда платежный шлюз отклонил авторизацию
	ErrPaymentDeclined = errors.New("payments client: payment declined")

	// ErrAuthNotFound возвращается, когда авторизация не найдена шлюзом
	ErrAuthNotFound = errors.New("payments client: authorization not found")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("payments client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от шлюза
	ErrInvalidResponse = errors.New("payments client: invalid response")
)
