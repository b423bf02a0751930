// Package report groups aggregated rows and renders them as tables.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/verte-zerg/kmerdiff/internal/model"
)

// DateLayoutDMY is the run date layout used in summary file names: two
// digits each of day, month and year.
const DateLayoutDMY = "020106"

// Group holds the rows of one model family in display order.
type Group struct {
	Family model.Family
	Rows   []model.Row
}

// CanonicalDate parses date with layout and returns it as YYYYMMDD, which
// sorts lexically in date order.
func CanonicalDate(date, layout string) (string, error) {
	if layout == "" {
		layout = DateLayoutDMY
	}
	t, err := time.Parse(layout, date)
	if err != nil {
		return "", fmt.Errorf("invalid date %q for layout %q: %w", date, layout, err)
	}
	return t.Format("20060102"), nil
}

// Select keeps the rows for treatment and alphabet, splits them by model
// family and sorts each family by run date. Every family is present in the
// result even when it has no rows.
func Select(rows []model.Row, treatment, alphabet, dateLayout string) ([]Group, error) {
	families := model.Families()
	groups := make([]Group, len(families))
	index := map[model.Family]int{}
	for i, f := range families {
		groups[i].Family = f
		index[f] = i
	}

	keys := map[string]string{}
	for _, row := range rows {
		if row.Treatment != treatment || row.Alphabet != alphabet {
			continue
		}
		i, ok := index[model.ClassifyModel(row.Model)]
		if !ok {
			continue
		}
		if _, seen := keys[row.Date]; !seen {
			key, err := CanonicalDate(row.Date, dateLayout)
			if err != nil {
				return nil, fmt.Errorf("run %s %s %s: %w", row.Sample, row.Pore, row.Lab, err)
			}
			keys[row.Date] = key
		}
		groups[i].Rows = append(groups[i].Rows, row)
	}

	for i := range groups {
		g := groups[i].Rows
		sort.SliceStable(g, func(a, b int) bool {
			ka, kb := keys[g[a].Date], keys[g[b].Date]
			if ka != kb {
				return ka < kb
			}
			if g[a].Sample != g[b].Sample {
				return g[a].Sample < g[b].Sample
			}
			if g[a].Pore != g[b].Pore {
				return g[a].Pore < g[b].Pore
			}
			return g[a].Lab < g[b].Lab
		})
	}
	return groups, nil
}
