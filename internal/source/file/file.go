// Package file reads scenario data from a YAML or JSON document.
//
// Layout:
//
//	scenarios:
//	  base:
//	    datasets:
//	      - dataset: demand
//	        area: DE
//	        profiles:
//	          2020: {daily: [..24 values..], scale: 1000}
//	      - dataset: fuel_price
//	        area: DE
//	        key: gas
//	        yearly: {2020: 20, 2030: 35}
//
// A profile is given either as 8760 explicit values, as a 24 hour day
// repeated over the year, or as a constant.
package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"dayahead-sim/internal/calendar"
	"dayahead-sim/internal/scenario"
)

var ErrBadProfile = errors.New("bad profile")

type Document struct {
	Scenarios map[string]ScenarioDoc `yaml:"scenarios" json:"scenarios"`
}

type ScenarioDoc struct {
	Description string       `yaml:"description,omitempty" json:"description,omitempty"`
	Datasets    []DatasetDoc `yaml:"datasets" json:"datasets"`
}

type DatasetDoc struct {
	Dataset  string             `yaml:"dataset" json:"dataset"`
	Area     string             `yaml:"area" json:"area"`
	Key      string             `yaml:"key,omitempty" json:"key,omitempty"`
	Yearly   map[int]float64    `yaml:"yearly,omitempty" json:"yearly,omitempty"`
	Profiles map[int]ProfileDoc `yaml:"profiles,omitempty" json:"profiles,omitempty"`
}

// ProfileDoc is one hourly profile in any of its accepted shorthands.
type ProfileDoc struct {
	Values   []float64 `yaml:"values,omitempty" json:"values,omitempty"`
	Daily    []float64 `yaml:"daily,omitempty" json:"daily,omitempty"`
	Constant *float64  `yaml:"constant,omitempty" json:"constant,omitempty"`
	// Scale multiplies every value; 0 means 1.
	Scale float64 `yaml:"scale,omitempty" json:"scale,omitempty"`
}

// Expand returns the full year of hourly values.
func (p ProfileDoc) Expand() ([]float64, error) {
	var out []float64
	switch {
	case p.Values != nil:
		if len(p.Values) != calendar.HoursPerYear {
			return nil, fmt.Errorf("%w: %d values, want %d", ErrBadProfile, len(p.Values), calendar.HoursPerYear)
		}
		out = append([]float64(nil), p.Values...)
	case p.Daily != nil:
		if len(p.Daily) != calendar.HoursPerDay {
			return nil, fmt.Errorf("%w: daily shape has %d values, want %d", ErrBadProfile, len(p.Daily), calendar.HoursPerDay)
		}
		out = make([]float64, 0, calendar.HoursPerYear)
		for range calendar.DaysPerYear {
			out = append(out, p.Daily...)
		}
	case p.Constant != nil:
		out = make([]float64, calendar.HoursPerYear)
		for i := range out {
			out[i] = *p.Constant
		}
	default:
		return nil, fmt.Errorf("%w: one of values, daily or constant is required", ErrBadProfile)
	}
	if p.Scale != 0 {
		for i := range out {
			out[i] *= p.Scale
		}
	}
	return out, nil
}

// Load reads the document at path. Files ending in .json are decoded as
// JSON, everything else as YAML.
func Load(path string) (*scenario.MemorySource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	src, err := Decode(f, strings.EqualFold(filepath.Ext(path), ".json"))
	if err != nil {
		return nil, fmt.Errorf("file: %s: %w", path, err)
	}
	return src, nil
}

// Decode parses a document into a MemorySource.
func Decode(r io.Reader, isJSON bool) (*scenario.MemorySource, error) {
	var doc Document
	var err error
	if isJSON {
		err = json.NewDecoder(r).Decode(&doc)
	} else {
		err = yaml.NewDecoder(r).Decode(&doc)
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return doc.Source()
}

// Source copies the document into a MemorySource.
func (d Document) Source() (*scenario.MemorySource, error) {
	src := scenario.NewMemorySource()
	for id, sc := range d.Scenarios {
		for i, ds := range sc.Datasets {
			if ds.Dataset == "" || ds.Area == "" {
				return nil, fmt.Errorf("scenario %s dataset #%d: dataset and area are required", id, i)
			}
			f := scenario.Filter{Dataset: ds.Dataset, Area: ds.Area, Key: ds.Key}
			for year, v := range ds.Yearly {
				src.PutYearly(id, f, year, v)
			}
			for year, p := range ds.Profiles {
				values, err := p.Expand()
				if err != nil {
					return nil, fmt.Errorf("scenario %s %s year %d: %w", id, f, year, err)
				}
				src.PutProfile(id, f, year, values)
			}
		}
	}
	return src, nil
}
