package release_hold

import "context"

type BookingLedger interface {
	Release(ctx context.Context, holdID, clientID int64) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
