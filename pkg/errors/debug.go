package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// SQLSTATE values the shop reacts to.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// ErrorDump is the log-only view of an error chain, including driver detail.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Chain      []string `json:"chain,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGColumn     string `json:"pg_column,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}
	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	if pg, ok := postgresError(err); ok {
		d.PGCode, d.PGConstraint, d.PGTable = pg.Code, pg.ConstraintName, pg.TableName
		d.PGColumn, d.PGDetail, d.PGMessage = pg.ColumnName, pg.Detail, pg.Message
	}
	return d
}

// postgresError normalises pgx and lib/pq errors into a pgconn.PgError.
func postgresError(err error) (*pgconn.PgError, bool) {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr, true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &pgconn.PgError{
			Code:           string(pqErr.Code),
			ConstraintName: pqErr.Constraint,
			TableName:      pqErr.Table,
			ColumnName:     pqErr.Column,
			Detail:         pqErr.Detail,
			Message:        pqErr.Message,
		}, true
	}
	return nil, false
}

func constraintViolation(err error, sqlstate string, sqliteCode sqlite3.ErrNoExtended, sqliteText string) bool {
	if err == nil {
		return false
	}
	if pg, ok := postgresError(err); ok {
		return pg.Code == sqlstate
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqliteCode
	}
	return strings.Contains(strings.ToLower(err.Error()), sqliteText)
}

// IsUniqueViolation reports a duplicate key, e.g. a taken username or category slug.
func IsUniqueViolation(err error) bool {
	return constraintViolation(err, pgUniqueViolation, sqlite3.ErrConstraintUnique, "unique constraint")
}

// IsForeignKeyViolation reports a reference to a missing row, e.g. a product in an unknown category.
func IsForeignKeyViolation(err error) bool {
	return constraintViolation(err, pgForeignKeyViolation, sqlite3.ErrConstraintForeignKey, "foreign key constraint")
}

// IsCheckViolation reports a failed CHECK, e.g. stock driven below zero.
func IsCheckViolation(err error) bool {
	return constraintViolation(err, pgCheckViolation, sqlite3.ErrConstraintCheck, "check constraint")
}
