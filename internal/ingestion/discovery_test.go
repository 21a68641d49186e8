package ingestion

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dualModeFakeCatalog struct {
	fakeCatalog
	bestSellers []string
}

func (f *dualModeFakeCatalog) BestSellers(_ context.Context, _ string, _ int) ([]string, error) {
	return f.bestSellers, nil
}

func TestDualModeDiscoverMergesAndDedupes(t *testing.T) {
	cat := &dualModeFakeCatalog{
		fakeCatalog: fakeCatalog{discoverIDs: []string{"B1", "B2", "B3"}},
		bestSellers: []string{"B2", "B9"},
	}

	ids, err := dualModeDiscover(context.Background(), cat, "node-1", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"B2", "B9", "B1", "B3"}, ids)
}

func TestDualModeDiscoverRespectsMaxResults(t *testing.T) {
	cat := &dualModeFakeCatalog{
		fakeCatalog: fakeCatalog{discoverIDs: []string{"B1", "B2", "B3"}},
		bestSellers: []string{"B9"},
	}

	ids, err := dualModeDiscover(context.Background(), cat, "node-1", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"B9", "B1"}, ids)
}
