package engine

import (
	"sort"
	"strings"
)

// Identity columns of a row.
const (
	SiteIDColumn = "f_site_id"
	CellIDColumn = "f_cell_id"
)

// RowKey identifies the site and cell a row belongs to.
type RowKey struct {
	SiteID string `json:"site_id" yaml:"site_id"`
	CellID string `json:"cell_id" yaml:"cell_id"`
}

func (k RowKey) String() string {
	return k.SiteID + "/" + k.CellID
}

// Row is one record of an MO table. Values are keyed by parameter name.
type Row struct {
	Key    RowKey
	Values map[string]string
}

// NewRow builds a row and takes its key from the identity columns.
func NewRow(values map[string]string) Row {
	return Row{
		Key: RowKey{
			SiteID: strings.TrimSpace(values[SiteIDColumn]),
			CellID: strings.TrimSpace(values[CellIDColumn]),
		},
		Values: values,
	}
}

// Dataset maps an MO name to its rows. An MO missing from the map has no
// data at all; an MO mapped to an empty slice was queried and returned nothing.
type Dataset map[string][]Row

// CommonRowKeys returns the keys present in every non-empty MO of the dataset,
// sorted by site then cell.
func CommonRowKeys(data Dataset) []RowKey {
	var common map[RowKey]bool
	for _, rows := range data {
		if len(rows) == 0 {
			continue
		}
		keys := make(map[RowKey]bool, len(rows))
		for _, row := range rows {
			if common == nil || common[row.Key] {
				keys[row.Key] = true
			}
		}
		common = keys
	}

	result := make([]RowKey, 0, len(common))
	for key := range common {
		result = append(result, key)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].SiteID != result[j].SiteID {
			return result[i].SiteID < result[j].SiteID
		}
		return result[i].CellID < result[j].CellID
	})
	return result
}
