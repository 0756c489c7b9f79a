package idgen

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestUUIDIsUniqueAndParseable(t *testing.T) {
	seen := make(map[string]struct{})
	var gen UUID
	for i := 0; i < 100; i++ {
		id := gen.NewID()
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}
