package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// DescribeError returns the error message enriched with the PostgreSQL
// error code and detail text when the cause is a server-side failure.
func DescribeError(err error) string {
	if err == nil {
		return ""
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err.Error()
	}
	parts := []string{err.Error(), "code=" + pgErr.Code}
	if detail := strings.TrimSpace(pgErr.Detail); detail != "" {
		parts = append(parts, "detail="+detail)
	}
	if hint := strings.TrimSpace(pgErr.Hint); hint != "" {
		parts = append(parts, "hint="+hint)
	}
	return strings.Join(parts, " ")
}

// IsConnectivityError reports whether the error looks like a failure to
// reach or authenticate to the database rather than a SQL execution error.
func IsConnectivityError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 28 covers authorization failures, class 3D unknown database.
		return strings.HasPrefix(pgErr.Code, "28") || strings.HasPrefix(pgErr.Code, "3D")
	}
	var connectErr *pgconn.ConnectError
	return errors.As(err, &connectErr)
}
