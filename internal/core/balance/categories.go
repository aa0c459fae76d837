package balance

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CategoryTotal is the spend recorded against one category.
type CategoryTotal struct {
	CategoryID string
	Name       string
	Total      float64
	Count      int
}

// ByCategory sums expenses per category, largest first. names is optional
// and only used for labels.
func ByCategory(expenses []Expense, names map[string]string) []CategoryTotal {
	sums := make(map[string]decimal.Decimal)
	counts := make(map[string]int)
	for _, e := range expenses {
		sums[e.CategoryID] = sums[e.CategoryID].Add(decimal.NewFromFloat(e.Amount))
		counts[e.CategoryID]++
	}

	ids := make([]string, 0, len(sums))
	for id := range sums {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if c := sums[ids[i]].Cmp(sums[ids[j]]); c != 0 {
			return c > 0
		}
		return ids[i] < ids[j]
	})

	out := make([]CategoryTotal, 0, len(ids))
	for _, id := range ids {
		out = append(out, CategoryTotal{
			CategoryID: id,
			Name:       names[id],
			Total:      sums[id].InexactFloat64(),
			Count:      counts[id],
		})
	}
	return out
}
