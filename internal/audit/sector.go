package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"paramcheck/internal/engine"
)

// Sector is the live configuration of one sector: rows per MO, each row a
// column -> value mapping that includes the f_site_id/f_cell_id identity.
type Sector struct {
	ID  string                         `json:"sector_id"`
	MOs map[string][]map[string]string `json:"mos"`
}

// Dataset converts the sector into engine rows.
func (s *Sector) Dataset() engine.Dataset {
	data := make(engine.Dataset, len(s.MOs))
	for mo, rows := range s.MOs {
		converted := make([]engine.Row, 0, len(rows))
		for _, values := range rows {
			converted = append(converted, engine.NewRow(values))
		}
		data[mo] = converted
	}
	return data
}

// MONames returns the sorted names of the MOs present in the sector.
func (s *Sector) MONames() []string {
	names := make([]string, 0, len(s.MOs))
	for name := range s.MOs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RowCount returns the number of rows across all MOs.
func (s *Sector) RowCount() int {
	n := 0
	for _, rows := range s.MOs {
		n += len(rows)
	}
	return n
}

type rawSector struct {
	ID  string                      `json:"sector_id"`
	MOs map[string][]map[string]any `json:"mos"`
}

// DecodeSector reads one sector object. Scalar cell values are rendered as
// strings; null becomes "".
func DecodeSector(r io.Reader) (*Sector, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read sector: %w", err)
	}
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		return nil, fmt.Errorf("decode sector: expected one sector object, got an array")
	}

	var raw rawSector
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode sector: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("decode sector: unexpected data after the sector object")
	}
	if strings.TrimSpace(raw.ID) == "" {
		return nil, fmt.Errorf("decode sector: sector_id is required")
	}

	sector := &Sector{ID: raw.ID, MOs: make(map[string][]map[string]string, len(raw.MOs))}
	for mo, rows := range raw.MOs {
		converted := make([]map[string]string, 0, len(rows))
		for _, row := range rows {
			values := make(map[string]string, len(row))
			for k, v := range row {
				values[k] = cellString(v)
			}
			converted = append(converted, values)
		}
		sector.MOs[mo] = converted
	}
	return sector, nil
}

func cellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		b, _ := json.Marshal(val)
		return string(b)
	}
}
