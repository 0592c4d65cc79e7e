package migrate

import (
	"fmt"
	"strings"

	"github.com/gaze-network/estate-ordinals/pkg/logger"
	"github.com/gaze-network/estate-ordinals/pkg/logger/slogx"
	"github.com/golang-migrate/migrate/v4"
)

var _ migrate.Logger = migrateLogger{}

// migrateLogger forwards golang-migrate progress lines to the service logger.
type migrateLogger struct {
	verbose bool
}

func (l migrateLogger) Printf(format string, v ...any) {
	logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)), slogx.String("package", "migrate"))
}

func (l migrateLogger) Verbose() bool {
	return l.verbose
}
