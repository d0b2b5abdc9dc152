package repository

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rsolheim/unitbooking/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestNewRequestRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewRequestRepository(pool)
	assert.NotNil(t, repo)
}

func TestDistinctUnitIDs(t *testing.T) {
	lines := []domain.BookingRequestLine{
		{UnitID: 9},
		{UnitID: 3},
		{UnitID: 9},
		{UnitID: 1},
		{UnitID: 3},
	}

	// Sorted and deduplicated so lock acquisition order is stable across
	// concurrent submissions.
	assert.Equal(t, []int64{1, 3, 9}, distinctUnitIDs(lines))
	assert.Empty(t, distinctUnitIDs(nil))
}
