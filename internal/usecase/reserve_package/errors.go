package reserve_package

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrServiceNotFound возвращается, когда одна из услуг пакета не найдена
	ErrServiceNotFound = errors.New("service not found")

	// ErrPartialFailure возвращается, когда один из слотов пакета захватить не удалось
	ErrPartialFailure = errors.New("package reservation failed")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("usecase: internal error")
)

// PartialFailureError описывает отказ резервации пакета: индекс услуги,
// слот которой захватить не удалось, и исходная причина. Все ранее
// захваченные холды пакета к моменту возврата ошибки уже сняты.
type PartialFailureError struct {
	FailedIndex int
	ServiceID   int64
	Err         error
}

// Error возвращает текстовое описание ошибки
func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("package reservation failed at service index %d (id=%d): %v", e.FailedIndex, e.ServiceID, e.Err)
}

// Unwrap возвращает исходную причину отказа
func (e *PartialFailureError) Unwrap() error {
	return e.Err
}

// Is сопоставляет ошибку с сентинелом ErrPartialFailure
func (e *PartialFailureError) Is(target error) bool {
	return target == ErrPartialFailure
}
