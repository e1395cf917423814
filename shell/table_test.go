package shell

import (
	"strconv"
	"strings"
	"testing"

	"golang.org/x/exp/slices"
)

func TestSharedPrefix(t *testing.T) {
	tests := []struct {
		words []string
		want  string
	}{
		{nil, ""},
		{[]string{"show"}, "show"},
		{[]string{"routes", "router", "route"}, "route"},
		{[]string{"interface", "ip"}, "i"},
		{[]string{"ip", "show"}, ""},
	}

	for _, test := range tests {
		if got := sharedPrefix(test.words); got != test.want {
			t.Fatalf("sharedPrefix(%q): expected %q, got %q", test.words, test.want, got)
		}
	}

	words := []string{"routes", "router"}
	sharedPrefix(words)
	if words[0] != "routes" {
		t.Fatalf("sharedPrefix reordered its argument: %q", words)
	}
}

func TestColumns(t *testing.T) {
	tests := []struct {
		words  []string
		width  int
		indent int
		want   []string
	}{
		{[]string{"R1", "R2", "R3"}, 20, 5, []string{"     R1  R2  R3"}},
		{[]string{"alpha", "b", "cc"}, 16, 0, []string{"alpha  b", "cc"}},
		{[]string{"alpha", "b"}, 0, 2, []string{"  alpha", "  b"}},
		{[]string{"alpha", "b"}, 8, 0, []string{"alpha", "b"}},
		{nil, 80, 0, nil},
	}

	for _, test := range tests {
		got := columns(test.words, test.width, test.indent)
		if !slices.Equal(got, test.want) {
			t.Fatalf("columns(%q, %d, %d): expected %q, got %q", test.words, test.width, test.indent, test.want, got)
		}
	}
}

func TestTermWidthWithoutTerminal(t *testing.T) {
	if w := termWidth(&strings.Builder{}); w != 0 {
		t.Fatalf("expected 0, got %d", w)
	}
}

func TestTabulate(t *testing.T) {
	length := func(s string) []string {
		return []string{s, strconv.Itoa(len(s))}
	}

	table, err := tabulate([]string{"a", "bbbb"}, []string{"Name", "Len"}, length)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		"Name   Len",
		"----   ---",
		"a      1",
		"bbbb   4",
	}

	if !slices.Equal(table, want) {
		t.Fatalf("expected %q, got %q", want, table)
	}

	_, err = tabulate([]string{"a"}, []string{"Name", "Len"}, func(s string) []string {
		return []string{s}
	})
	if err == nil {
		t.Fatal("expected a row with too few cells to fail")
	}
}
