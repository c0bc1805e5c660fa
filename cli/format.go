package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

func formatTime(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.Format(time.RFC3339)
}

func formatTimeOrNil(v *time.Time) string {
	if v == nil {
		return ""
	}
	return formatTime(*v)
}

// parseVariables parses repeated key=value flags. A JSON value is used as is,
// anything else becomes a string.
func parseVariables(values []string) (map[string]any, error) {
	if len(values) == 0 {
		return nil, nil
	}

	variables := make(map[string]any, len(values))
	for _, value := range values {
		name, v, ok := strings.Cut(value, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("variable %q must have the format key=value", value)
		}

		var parsed any
		if err := json.Unmarshal([]byte(v), &parsed); err != nil {
			parsed = v
		}
		variables[name] = parsed
	}
	return variables, nil
}

func newTable(headers []string) table {
	rows := make([][]string, 1)
	rows[0] = headers

	return table{rows: rows}
}

type table struct {
	rows [][]string
}

func (t *table) addRow(row []string) {
	t.rows = append(t.rows, row)
}

func (t *table) format() string {
	rows := t.rows

	columns := make([]int, len(rows[0]))
	for i := 0; i < len(rows); i++ {
		for j := 0; j < len(columns); j++ {
			l := utf8.RuneCountInString(rows[i][j])
			if columns[j] < l {
				columns[j] = l
			}
		}
	}

	var sb strings.Builder
	for i := 0; i < len(rows); i++ {
		for j := 0; j < len(columns); j++ {
			if j != 0 {
				sb.WriteString("   ")
			}

			value := rows[i][j]
			sb.WriteString(value)
			sb.WriteString(strings.Repeat(" ", columns[j]-utf8.RuneCountInString(value)))
		}
		sb.WriteRune('\n')
	}
	return sb.String()
}
