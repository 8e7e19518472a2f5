package catalogservice

// Logger интерфейс логирования для клиента CatalogService
type Logger interface {
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}
