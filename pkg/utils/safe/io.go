package safe

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/oncoguard/oncoguard/pkg/utils/logging"
)

// Close closes closer and logs any error. nil closers are ignored.
func Close(ctx context.Context, closer io.Closer) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.From(ctx).Error("Failed to close", slog.Any("error", err))
	}
}

// Rollback rolls back a transaction and logs unexpected failures.
// errIgnore is returned by drivers when the transaction is already finished.
func Rollback(ctx context.Context, rollback func() error, errIgnore ...error) {
	if rollback == nil {
		return
	}
	err := rollback()
	if err == nil {
		return
	}
	for _, ignore := range errIgnore {
		if errors.Is(err, ignore) {
			return
		}
	}
	logging.From(ctx).Error("Failed to rollback", slog.Any("error", err))
}
