package repos

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"pricewatch/internal/apperr"
	"pricewatch/internal/metrics"
)

var connMarkers = []string{
	"database is locked",
	"database table is locked",
	"sqlite_busy",
	"unable to open database",
	"disk i/o error",
	"interrupted",
	"connection refused",
	"sql: database is closed",
}

// classify maps a driver error onto the apperr taxonomy. sql.ErrNoRows passes
// through untouched so callers can treat it as "not found".
func classify(op string, err error) error {
	if err == nil || errors.Is(err, sql.ErrNoRows) {
		return err
	}
	kind, label := apperr.ErrQuery, "query"
	if isConnErr(err) {
		kind, label = apperr.ErrConnection, "connection"
	}
	metrics.RecordStorageError(label)
	return &apperr.StorageError{Kind: kind, Op: op, Err: err}
}

func isConnErr(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, m := range connMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToUpper(err.Error()), "FOREIGN KEY CONSTRAINT FAILED")
}
