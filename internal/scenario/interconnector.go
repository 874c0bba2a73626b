package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"dayahead-sim/internal/timeseries"
)

// Link is a directed interconnection between two market areas.
type Link struct {
	From string `yaml:"from" toml:"from" json:"from"`
	To   string `yaml:"to" toml:"to" json:"to"`
}

func (l Link) String() string { return l.From + "->" + l.To }

// InterconnectorCapacity holds the net transfer capacity per link in MW.
// Capacity is assumed never to shrink beyond the last sample.
type InterconnectorCapacity struct {
	links []Link
	caps  map[Link]*timeseries.Dense[float64]
}

// LoadInterconnectors loads every link whose two ends are known areas. A
// link without data is dropped with a warning.
func LoadInterconnectors(ctx context.Context, src DataSource, req Request, links []Link, areas map[string]*Area) (*InterconnectorCapacity, error) {
	ic := &InterconnectorCapacity{caps: make(map[Link]*timeseries.Dense[float64], len(links))}
	log := req.logger()
	for _, l := range links {
		if areas[l.From] == nil || areas[l.To] == nil {
			log.Warn("interconnector references unknown area", slog.String("link", l.String()))
			continue
		}
		r := req
		r.Area = l.From
		d, err := loadScalar(ctx, src, r, r.filter(DatasetInterconnectorCapacity, l.To), timeseries.LinearTrendFloored)
		if errors.Is(err, ErrDataUnavailable) {
			log.Warn("interconnector without capacity data dropped", slog.String("link", l.String()))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("scenario: interconnector %s: %w", l, err)
		}
		ic.links = append(ic.links, l)
		ic.caps[l] = d
	}
	return ic, nil
}

// Capacity returns the NTC from one area to another, 0 without a link.
func (ic *InterconnectorCapacity) Capacity(from, to string, year int) float64 {
	d, ok := ic.caps[Link{From: from, To: to}]
	if !ok {
		return 0
	}
	return d.At(year)
}

// Links lists the loaded links.
func (ic *InterconnectorCapacity) Links() []Link { return ic.links }
