package holiday

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/de"
	"github.com/rickar/cal/v2/gb"
	"github.com/rickar/cal/v2/us"
)

// ErrRegionUnsupported is returned by BuiltinProvider for regions it has
// no rule set for.
var ErrRegionUnsupported = errors.New("region not supported by builtin provider")

// BuiltinProvider computes public holidays offline from rule sets, for
// deployments without access to the remote provider.
type BuiltinProvider struct {
	regions map[string][]*cal.Holiday
}

func NewBuiltinProvider() *BuiltinProvider {
	return &BuiltinProvider{
		regions: map[string][]*cal.Holiday{
			"US": us.Holidays,
			"GB": gb.Holidays,
			"DE": de.Holidays,
		},
	}
}

// Regions lists the supported region codes.
func (p *BuiltinProvider) Regions() []string {
	out := make([]string, 0, len(p.regions))
	for r := range p.regions {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

func (p *BuiltinProvider) Fetch(_ context.Context, region string, year int) ([]byte, error) {
	rules, ok := p.regions[region]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRegionUnsupported, region)
	}

	records := make([]Record, 0, len(rules))
	for _, h := range rules {
		actual, _ := h.Calc(year)
		if actual.IsZero() {
			continue
		}
		records = append(records, Record{
			Date:        actual.Format("2006-01-02"),
			Name:        h.Name,
			LocalName:   h.Name,
			CountryCode: region,
			Fixed:       h.Month != 0 && h.Day != 0 && h.Offset == 0,
			Global:      true,
		})
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].Date < records[j].Date })
	return json.Marshal(records)
}
