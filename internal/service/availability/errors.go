package availability

import "errors"

var (
	// ErrInvalidWindow возвращается при некорректном рабочем окне
	ErrInvalidWindow = errors.New("availability: invalid window")

	// ErrOverlappingWindows возвращается, когда окна одного дня недели пересекаются
	ErrOverlappingWindows = errors.New("availability: overlapping windows for weekday")

	// ErrInvalidException возвращается при некорректном исключении из расписания
	ErrInvalidException = errors.New("availability: invalid exception")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("availability: internal error")
)
