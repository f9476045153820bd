package repositories

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestPgInsertError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantCodeTaken bool
	}{
		{
			name: "open code index violation",
			err: &pgconn.PgError{
				Code:           pgUniqueViolation,
				ConstraintName: pgOpenCodeIndex,
			},
			wantCodeTaken: true,
		},
		{
			name: "primary key violation",
			err: &pgconn.PgError{
				Code:           pgUniqueViolation,
				ConstraintName: "games_pkey",
			},
			wantCodeTaken: false,
		},
		{
			name: "other database error",
			err: &pgconn.PgError{
				Code: "42P01",
			},
			wantCodeTaken: false,
		},
		{
			name:          "plain error",
			err:           fmt.Errorf("connection reset"),
			wantCodeTaken: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pgInsertError(tt.err, "otter-canyon")
			assert.Equal(t, tt.wantCodeTaken, IsCodeTaken(err), "unexpected mapping: %v", err)
		})
	}
}
