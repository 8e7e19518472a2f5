package config

import "errors"

var (
	// ErrConfigNotFound возвращается, когда конфигурация не найдена
	ErrConfigNotFound = errors.New("config: config not found")

	// ErrConfigAlreadyExists возвращается при попытке создать дубликат
	// конфигурации для той же комбинации provider/location/service
	ErrConfigAlreadyExists = errors.New("config: config already exists")

	// ErrProviderNotFound возвращается, когда провайдер не найден в каталоге
	ErrProviderNotFound = errors.New("config: provider not found")

	// ErrServiceNotFound возвращается, когда услуга не найдена в каталоге
	ErrServiceNotFound = errors.New("config: service not found")

	// ErrLocationNotFound возвращается, когда локация не принадлежит провайдеру
	ErrLocationNotFound = errors.New("config: location not found")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("config: invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("config: internal error")
)
