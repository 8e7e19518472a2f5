package payments

// AuthorizeRequest запрос на авторизацию платежа
type AuthorizeRequest struct {
	ClientID       int64   `json:"client_id"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	InstantCapture bool    `json:"instant_capture"`
	IdempotencyKey string  `json:"idempotency_key"`
}

// AuthorizeResponse ответ шлюза на авторизацию платежа
type AuthorizeResponse struct {
	AuthID   string `json:"auth_id"`
	Captured bool   `json:"captured"`
}

// CaptureRequest запрос на списание ранее авторизованной суммы
type CaptureRequest struct {
	AuthID string  `json:"auth_id"`
	Amount float64 `json:"amount"`
}

// RefundRequest запрос на возврат средств.
// Amount может быть меньше авторизованной суммы при удержании комиссии за отмену.
type RefundRequest struct {
	AuthID string  `json:"auth_id"`
	Amount float64 `json:"amount"`
}

// ErrorResponse модель ошибки от платежного шлюза
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
