package db

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestDescribeErrorIncludesCodeAndDetail(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:    "23505",
		Message: "duplicate key value violates unique constraint",
		Detail:  "Key (order_id)=(x) already exists.",
	}
	wrapped := fmt.Errorf("db: create index: %w", pgErr)

	described := DescribeError(wrapped)
	for _, want := range []string{"code=23505", "detail=Key (order_id)=(x) already exists."} {
		if !strings.Contains(described, want) {
			t.Errorf("DescribeError missing %q in %q", want, described)
		}
	}

	plain := errors.New("dial tcp: connection refused")
	if got := DescribeError(plain); got != plain.Error() {
		t.Errorf("DescribeError(plain) = %q, want %q", got, plain.Error())
	}
	if got := DescribeError(nil); got != "" {
		t.Errorf("DescribeError(nil) = %q, want empty", got)
	}
}

func TestIsConnectivityError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"auth failure", fmt.Errorf("db: open: %w", &pgconn.PgError{Code: "28P01"}), true},
		{"unknown database", fmt.Errorf("db: open: %w", &pgconn.PgError{Code: "3D000"}), true},
		{"syntax error", fmt.Errorf("db: migrate: %w", &pgconn.PgError{Code: "42601"}), false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		if got := IsConnectivityError(tc.err); got != tc.want {
			t.Errorf("%s: IsConnectivityError = %v, want %v", tc.name, got, tc.want)
		}
	}
}
