package shell

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/exp/slices"
	"golang.org/x/term"
)

type fder interface {
	Fd() uintptr
}

// sharedPrefix returns the longest string every word starts with. Sorting
// puts the two most different words at the ends, so only they are compared.
func sharedPrefix(words []string) string {
	if len(words) == 0 {
		return ""
	}

	sorted := slices.Clone(words)
	slices.Sort(sorted)

	first, last := sorted[0], sorted[len(sorted)-1]
	n := 0
	for n < len(first) && n < len(last) && first[n] == last[n] {
		n++
	}

	return first[:n]
}

// tabulate renders items as left aligned columns under headers, with a
// dashed separator line. f must return one cell per header.
func tabulate[T any](items []T, headers []string, f func(T) []string) ([]string, error) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}

	cells := make([][]string, len(items))

	for i, item := range items {
		cells[i] = f(item)

		if len(cells[i]) != len(headers) {
			return nil, fmt.Errorf("invalid number of columns for row %d", i)
		}

		for j, cell := range cells[i] {
			if len(cell) > widths[j] {
				widths[j] = len(cell)
			}
		}
	}

	row := func(cols []string) string {
		var b strings.Builder
		for i, c := range cols {
			if i == len(cols)-1 {
				b.WriteString(c)
			} else {
				fmt.Fprintf(&b, "%-*s", widths[i]+3, c)
			}
		}
		return b.String()
	}

	table := make([]string, 0, len(items)+2)
	table = append(table, row(headers))

	separator := make([]string, len(headers))
	for i := range headers {
		separator[i] = strings.Repeat("-", widths[i])
	}
	table = append(table, row(separator))

	for _, cols := range cells {
		table = append(table, row(cols))
	}

	return table, nil
}

func printTable[T any](w io.Writer, items []T, headers []string, f func(T) []string) error {
	table, err := tabulate(items, headers, f)
	if err != nil {
		return err
	}

	for _, line := range table {
		fmt.Fprintf(w, "%s\n", line)
	}

	return nil
}

// termWidth returns the width of the terminal behind w, or 0 if w isn't a
// terminal.
func termWidth(w io.Writer) int {
	f, ok := w.(fder)
	if !ok {
		return 0
	}

	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}

	return width
}

// columns lays words out left to right in equal width cells, indented by
// indent, using as many cells per line as fit in width. With no room for two
// cells, each word gets its own line.
func columns(words []string, width, indent int) []string {
	cell := 0
	for _, word := range words {
		if len(word)+2 > cell {
			cell = len(word) + 2
		}
	}

	perLine := 1
	if cell > 0 && (width-indent)/cell > 1 {
		perLine = (width - indent) / cell
	}

	pad := strings.Repeat(" ", indent)

	var lines []string
	for len(words) > 0 {
		n := perLine
		if n > len(words) {
			n = len(words)
		}

		var b strings.Builder
		b.WriteString(pad)
		for i, word := range words[:n] {
			b.WriteString(word)
			if i < n-1 {
				b.WriteString(strings.Repeat(" ", cell-len(word)))
			}
		}

		lines = append(lines, b.String())
		words = words[n:]
	}

	return lines
}
