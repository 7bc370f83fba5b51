// Package table reads keyed tab-separated annotation tables.
package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/ChrisMcGann/ProtQuant/pkg/annotation"
	"github.com/ChrisMcGann/ProtQuant/pkg/core"
)

// Read parses a tab-separated table whose key column is named key. All
// other columns are carried as annotation. Short rows are padded with
// empty values.
func Read(r io.Reader, key string) (*annotation.Table, error) {
	c := csv.NewReader(r)
	c.Comma = '\t'
	c.LazyQuotes = true
	c.FieldsPerRecord = -1

	header, err := c.Read()
	if err == io.EOF {
		return nil, core.ConfigurationError.New("empty annotation table")
	}
	if err != nil {
		return nil, core.DataIntegrityError.Wrap(err)
	}

	keyCol := -1
	var columns []string
	var colIdx []int
	for i, h := range header {
		h = strings.TrimSpace(h)
		if keyCol < 0 && strings.EqualFold(h, key) {
			keyCol = i
			continue
		}
		columns = append(columns, h)
		colIdx = append(colIdx, i)
	}
	if keyCol < 0 {
		return nil, core.ConfigurationError.New("annotation table has no %q column", key)
	}

	t, err := annotation.NewTable(strings.TrimSpace(header[keyCol]), columns)
	if err != nil {
		return nil, err
	}

	for {
		fields, err := c.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, core.DataIntegrityError.Wrap(err)
		}
		line, _ := c.FieldPos(0)

		if keyCol >= len(fields) || strings.TrimSpace(fields[keyCol]) == "" {
			return nil, core.DataIntegrityError.New("line %d: missing %q value", line, key)
		}
		values := make([]string, len(colIdx))
		for j, i := range colIdx {
			if i < len(fields) {
				values[j] = strings.TrimSpace(fields[i])
			}
		}
		if err := t.Add(strings.TrimSpace(fields[keyCol]), values); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}

	return t, nil
}
