package db

import (
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestNumericRoundTrip(t *testing.T) {
	for _, raw := range []string{"0", "10.00", "1234.5678", "-3.2"} {
		d := decimal.RequireFromString(raw)
		n := Numeric(d)
		require.True(t, n.Valid)
		require.True(t, d.Equal(Decimal(n)), raw)
	}
}

func TestDecimalNullIsZero(t *testing.T) {
	require.True(t, Decimal(pgtype.Numeric{}).IsZero())
	require.True(t, Decimal(pgtype.Numeric{Valid: true, NaN: true}).IsZero())
}
