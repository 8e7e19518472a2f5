package commit_hold

// CommitHoldRequest HTTP request model
type CommitHoldRequest struct {
	// InstantCapture - мгновенное списание; иначе предавторизация
	// и бронирование остается в pending_payment
	InstantCapture bool    `json:"instantCapture"`
	Notes          *string `json:"notes,omitempty"`
}
