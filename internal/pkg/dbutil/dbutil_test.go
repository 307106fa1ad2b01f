package dbutil

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestFinalizeRebinds(t *testing.T) {
	query, args := Finalize("SELECT id FROM bid_responses WHERE tenant_id=? AND status=?", []interface{}{"t1", "draft"})
	require.Equal(t, "SELECT id FROM bid_responses WHERE tenant_id=$1 AND status=$2", query)
	require.Equal(t, []interface{}{"t1", "draft"}, args)
}

func TestPostgresErrorCodes(t *testing.T) {
	require.True(t, IsConflict(&pq.Error{Code: "23505"}))
	require.True(t, IsConflict(fmt.Errorf("insert bid: %w", &pq.Error{Code: "23505"})))
	require.False(t, IsConflict(&pq.Error{Code: "23503"}))
	require.False(t, IsConflict(errors.New("boom")))

	require.True(t, IsMissingReference(fmt.Errorf("insert match: %w", &pq.Error{Code: "23503"})))
	require.False(t, IsMissingReference(&pq.Error{Code: "23505"}))
}
