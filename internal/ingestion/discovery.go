package ingestion

import "context"

// dualModeDiscover is the catalog leg of C3 step 1 that Pipeline.discover
// uses when TopNBestSellers > 0: it merges a category's best-sellers with
// its full category listing (best-sellers first, de-duplicated, capped at
// maxResults when positive), grounded on category_discovery.py's
// best-sellers-first exploration strategy.
func dualModeDiscover(ctx context.Context, cat Catalog, nodeID string, topNBestSellers, maxResults int) ([]string, error) {
	seen := make(map[string]bool, maxResults)
	out := make([]string, 0, maxResults)

	add := func(ids []string) {
		for _, id := range ids {
			if maxResults > 0 && len(out) >= maxResults {
				return
			}
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}

	if topNBestSellers > 0 {
		bestSellers, err := cat.BestSellers(ctx, nodeID, topNBestSellers)
		if err != nil {
			return nil, err
		}
		add(bestSellers)
	}

	if maxResults <= 0 || len(out) < maxResults {
		listed, err := cat.CategoryListings(ctx, nodeID, true, maxResults)
		if err != nil {
			return nil, err
		}
		add(listed)
	}

	return out, nil
}
