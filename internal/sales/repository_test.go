package sales

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

func TestReservationRunsAtReadCommitted(t *testing.T) {
	require.Equal(t, pgx.ReadCommitted, reservationTxOptions.IsoLevel)
}
