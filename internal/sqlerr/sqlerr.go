// Package sqlerr handles database driver errors.
//
// It normalizes the errors of the supported drivers (pgx, the MySQL driver
// and SQLite) into one Error type and converts them into user-friendly
// HTTP errors (e.g. a canceled query becomes a 503).
package sqlerr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Code is a driver-independent error category.
type Code string

const (
	Other                     Code = "other"
	UniqueViolation           Code = "unique_violation"
	ForeignKeyViolation       Code = "foreign_key_violation"
	NotNullViolation          Code = "not_null_violation"
	CheckViolation            Code = "check_violation"
	InvalidTextRepresentation Code = "invalid_text_representation"
	UndefinedTable            Code = "undefined_table"
	UndefinedColumn           Code = "undefined_column"
	SyntaxError               Code = "syntax_error"
	QueryCanceled             Code = "query_canceled"
	ConnectionFailure         Code = "connection_failure"
)

// Severity mirrors the PostgreSQL severity levels. Drivers without a
// severity report SeverityError.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityFatal   Severity = "FATAL"
	SeverityPanic   Severity = "PANIC"
	SeverityWarning Severity = "WARNING"
	SeverityNotice  Severity = "NOTICE"
	SeverityDebug   Severity = "DEBUG"
	SeverityInfo    Severity = "INFO"
	SeverityLog     Severity = "LOG"
)

// Error is a normalized driver error.
type Error struct {
	Code     Code
	Severity Severity
	// DatabaseCode is the driver's own code: a SQLSTATE, a MySQL error
	// number or a SQLite extended result code.
	DatabaseCode   string
	Message        string
	SchemaName     string
	TableName      string
	ColumnName     string
	DataTypeName   string
	ConstraintName string

	driverErr error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Severity, e.DatabaseCode, e.Message)
}

func (e *Error) Unwrap() error {
	return e.driverErr
}

var pgCodes = map[string]Code{
	"23505": UniqueViolation,
	"23503": ForeignKeyViolation,
	"23502": NotNullViolation,
	"23514": CheckViolation,
	"22P02": InvalidTextRepresentation,
	"42P01": UndefinedTable,
	"42703": UndefinedColumn,
	"42601": SyntaxError,
	"57014": QueryCanceled,
	"08000": ConnectionFailure,
	"08003": ConnectionFailure,
	"08006": ConnectionFailure,
}

// MapCode maps a PostgreSQL SQLSTATE onto a Code.
func MapCode(sqlState string) Code {
	if code, ok := pgCodes[sqlState]; ok {
		return code
	}
	return Other
}

// MapSeverity maps a PostgreSQL severity string onto a Severity.
func MapSeverity(severity string) Severity {
	switch s := Severity(strings.ToUpper(severity)); s {
	case SeverityError, SeverityFatal, SeverityPanic, SeverityWarning,
		SeverityNotice, SeverityDebug, SeverityInfo, SeverityLog:
		return s
	default:
		return SeverityError
	}
}

var mysqlCodes = map[uint16]Code{
	1062: UniqueViolation,
	1451: ForeignKeyViolation,
	1452: ForeignKeyViolation,
	1048: NotNullViolation,
	3819: CheckViolation,
	1366: InvalidTextRepresentation,
	1292: InvalidTextRepresentation,
	1146: UndefinedTable,
	1054: UndefinedColumn,
	1064: SyntaxError,
	1317: QueryCanceled,
	3024: QueryCanceled,
}

// MapMySQLCode maps a MySQL/MariaDB error number onto a Code.
func MapMySQLCode(number uint16) Code {
	if code, ok := mysqlCodes[number]; ok {
		return code
	}
	return Other
}

// ConvertMySQLError converts a MySQL driver error into an Error.
func ConvertMySQLError(src *mysql.MySQLError) *Error {
	return &Error{
		Code:         MapMySQLCode(src.Number),
		Severity:     SeverityError,
		DatabaseCode: fmt.Sprintf("%d", src.Number),
		Message:      src.Message,
		driverErr:    src,
	}
}

// MapSQLiteCode maps a SQLite extended result code onto a Code.
func MapSQLiteCode(code int) Code {
	switch code {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return UniqueViolation
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return ForeignKeyViolation
	case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return NotNullViolation
	case sqlite3.SQLITE_CONSTRAINT_CHECK:
		return CheckViolation
	case sqlite3.SQLITE_INTERRUPT:
		return QueryCanceled
	case sqlite3.SQLITE_CANTOPEN:
		return ConnectionFailure
	default:
		return Other
	}
}

// ConvertSQLiteError converts a SQLite driver error into an Error.
func ConvertSQLiteError(src *sqlite.Error) *Error {
	code := MapSQLiteCode(src.Code())
	if code == Other {
		// Plain SQLITE_ERROR covers schema and syntax problems alike; the
		// message is the only discriminator.
		msg := src.Error()
		switch {
		case strings.Contains(msg, "no such table"):
			code = UndefinedTable
		case strings.Contains(msg, "no such column"):
			code = UndefinedColumn
		case strings.Contains(msg, "syntax error"):
			code = SyntaxError
		}
	}

	return &Error{
		Code:         code,
		Severity:     SeverityError,
		DatabaseCode: fmt.Sprintf("%d", src.Code()),
		Message:      src.Error(),
		driverErr:    src,
	}
}

// Convert normalizes any supported driver error. ok is false when err does
// not come from a known driver.
func Convert(err error) (*Error, bool) {
	var sqlErr *Error
	if errors.As(err, &sqlErr) {
		return sqlErr, true
	}

	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) {
		return ConvertPgError(pgerr), true
	}

	var myerr *mysql.MySQLError
	if errors.As(err, &myerr) {
		return ConvertMySQLError(myerr), true
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return ConvertSQLiteError(liteErr), true
	}

	return nil, false
}
