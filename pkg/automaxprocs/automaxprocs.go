// Package automaxprocs sets GOMAXPROCS to the container CPU quota.
package automaxprocs

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/pkg/logger"
	"github.com/gaze-network/estate-ordinals/pkg/logger/slogx"
	"go.uber.org/automaxprocs/maxprocs"
)

var undo func()

// Init applies the CPU quota, if any. A GOMAXPROCS environment variable takes precedence.
func Init() error {
	log := logger.With(
		slogx.String("package", "automaxprocs"),
		slogx.Int("prev_maxprocs", Current()),
	)
	printf := func(format string, v ...any) {
		log.LogAttrs(context.Background(), slog.LevelInfo, fmt.Sprintf(format, v...), slogx.Int("maxprocs", Current()))
	}

	revert, err := maxprocs.Set(maxprocs.Logger(printf), maxprocs.Min(1))
	if err != nil {
		return errors.WithStack(err)
	}
	undo = revert
	return nil
}

// Undo restores the GOMAXPROCS value from before Init.
func Undo() {
	if undo != nil {
		undo()
	}
}

func Current() int {
	return runtime.GOMAXPROCS(0)
}
