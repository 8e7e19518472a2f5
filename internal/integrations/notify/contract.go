package notify

// Logger интерфейс логирования для диспетчера уведомлений
type Logger interface {
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}
