package sheets

import (
	"fmt"
	"strconv"
	"strings"
)

// ColumnLetter converts a 0-based column index to its A1 letters.
func ColumnLetter(idx int) string {
	n := idx + 1
	var out []byte
	for n > 0 {
		n--
		out = append([]byte{byte('A' + n%26)}, out...)
		n /= 26
	}
	return string(out)
}

// ColumnRange returns the A1 range of one column from firstRow over count rows (1-based rows).
func ColumnRange(col, firstRow, count int) string {
	letter := ColumnLetter(col)
	return fmt.Sprintf("%s%d:%s%d", letter, firstRow, letter, firstRow+count-1)
}

// Cell is a 0-based row/column position.
type Cell struct {
	Row int
	Col int
}

// ParseRange parses "E2:E10" or "Q5" into the 0-based top-left cell.
func ParseRange(rng string) (Cell, error) {
	if i := strings.LastIndex(rng, "!"); i != -1 {
		rng = rng[i+1:]
	}
	first := strings.SplitN(rng, ":", 2)[0]
	first = strings.ToUpper(strings.TrimSpace(first))

	i := 0
	col := 0
	for i < len(first) && first[i] >= 'A' && first[i] <= 'Z' {
		col = col*26 + int(first[i]-'A'+1)
		i++
	}
	if i == 0 || i == len(first) {
		return Cell{}, fmt.Errorf("invalid A1 range %q", rng)
	}
	row, err := strconv.Atoi(first[i:])
	if err != nil || row < 1 {
		return Cell{}, fmt.Errorf("invalid A1 range %q", rng)
	}
	return Cell{Row: row - 1, Col: col - 1}, nil
}
