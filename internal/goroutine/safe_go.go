package goroutine

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/logger"
)

// SafeGo запускает fn в горутине; panic логируется и не роняет процесс.
func SafeGo(name string, fn func()) {
	go func() {
		defer recoverPanic(name)
		fn()
	}()
}

// Every вызывает fn раз в interval, пока ctx не отменён. Паника в одном
// запуске не останавливает следующие.
func Every(ctx context.Context, name string, interval time.Duration, fn func(ctx context.Context)) {
	if interval <= 0 {
		return
	}
	SafeGo(name, func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runOnce(ctx, name, fn)
			}
		}
	})
}

func runOnce(ctx context.Context, name string, fn func(ctx context.Context)) {
	defer recoverPanic(name)
	fn(ctx)
}

func recoverPanic(name string) {
	if r := recover(); r != nil {
		logger.WithFields(logrus.Fields{
			"worker": name,
			"panic":  r,
			"stack":  string(debug.Stack()),
		}).Error("panic in background worker")
	}
}
