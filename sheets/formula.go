// ABOUTME: Spreadsheet formula and A1 range helpers
// ABOUTME: Renders HYPERLINK/IMAGE cells and converts column numbers to letters
package sheets

import (
	"fmt"
	"strings"
)

// Formula selects how a column's values are rendered.
type Formula int

const (
	Plain Formula = iota
	// Hyperlink wraps the value as =HYPERLINK("url", "View Post").
	Hyperlink
	// Image embeds the value as =IMAGE("url").
	Image
)

// LinkLabel is the text shown for hyperlink cells.
const LinkLabel = "View Post"

// Render returns the cell value for v. Empty values stay empty.
func (f Formula) Render(v string) string {
	if v == "" {
		return v
	}
	switch f {
	case Hyperlink:
		return fmt.Sprintf(`=HYPERLINK("%s", "%s")`, quote(v), LinkLabel)
	case Image:
		return fmt.Sprintf(`=IMAGE("%s")`, quote(v))
	default:
		return v
	}
}

func quote(s string) string {
	return strings.ReplaceAll(s, `"`, `""`)
}

// ColumnLetter converts a 1-based column number to A1 letters: 1 is A, 27 is AA.
func ColumnLetter(n int) string {
	if n < 1 {
		return ""
	}
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

// Range builds an A1 range covering columns 1..cols of rows first..last on
// tab. Tab names are always quoted.
func Range(tab string, cols, first, last int) string {
	return fmt.Sprintf("%s!A%d:%s%d", quoteTab(tab), first, ColumnLetter(cols), last)
}

func quoteTab(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}
