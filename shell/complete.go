package shell

import (
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/exp/slices"
)

type suggestion struct {
	word        string
	description string
	value       bool // a known value for a parameter
}

var paramDocs = map[string]string{
	"<router>": "Router hostname",
	"<iface>":  "Interface name",
}

// split breaks the text before the cursor into the tokens already finished
// and the token being typed.
func split(prefix string) (done []string, current string) {
	done = strings.Fields(prefix)

	last, _ := utf8.DecodeLastRuneInString(prefix)
	if prefix == "" || unicode.IsSpace(last) {
		return done, ""
	}

	return done[:len(done)-1], done[len(done)-1]
}

// paramOptions lists the values a parameter can take. Interfaces come from the
// router named by the closest preceding <router> argument.
func (cli *CLI) paramOptions(c *command, done []string) []string {
	switch c.words[len(done)] {
	case "<router>":
		return cli.reg.Hostnames()
	case "<iface>":
		for i := len(done) - 1; i >= 0; i-- {
			if c.words[i] != "<router>" {
				continue
			}

			r, ok := cli.reg.Get(done[i])
			if !ok {
				return nil
			}

			var names []string
			for _, iface := range r.Interfaces() {
				names = append(names, iface.Name)
			}
			return names
		}
	}

	return nil
}

// suggestions returns the possible next words after done that start with
// current, and whether done is already a complete command.
func (cli *CLI) suggestions(done []string, current string) ([]suggestion, bool) {
	var out []suggestion
	complete := false

	for _, c := range cli.commands {
		if _, ok := c.match(done); !ok {
			continue
		}

		if len(done) == len(c.words) {
			complete = true
			continue
		}

		word := c.words[len(done)]
		description := c.description
		if len(done)+1 < len(c.words) {
			if isParam(word) {
				description = paramDocs[word]
			} else if doc, ok := cli.docs[strings.Join(c.words[:len(done)+1], " ")]; ok {
				description = doc
			}
		}

		if !isParam(word) {
			if strings.HasPrefix(word, current) {
				out = append(out, suggestion{word: word, description: description})
			}
			continue
		}

		out = append(out, suggestion{word: word, description: description})

		for _, o := range cli.paramOptions(c, done) {
			if strings.HasPrefix(o, current) {
				out = append(out, suggestion{word: o, value: true})
			}
		}
	}

	slices.SortFunc(out, func(a, b suggestion) bool {
		if a.word != b.word {
			return a.word < b.word
		}
		return !a.value && b.value
	})

	return slices.CompactFunc(out, func(a, b suggestion) bool {
		return a.word == b.word
	}), complete
}

func (cli *CLI) completeWithTab(w io.Writer, line string, pos int) (string, int, bool) {
	prefix := line[:pos]
	rest := line[pos:]

	done, current := split(prefix)
	sugs, _ := cli.suggestions(done, current)

	var options []string
	for _, s := range sugs {
		if !isParam(s.word) {
			options = append(options, s.word)
		}
	}

	if len(options) == 0 {
		fmt.Fprintf(w, "\a")
		return "", 0, false
	} else if len(options) == 1 {
		s := prefix + options[0][len(current):]

		if !strings.HasPrefix(rest, " ") {
			s += " "
		}

		return s + rest, len(s), true
	} else if cli.lastKey != '\t' {
		s := prefix + sharedPrefix(options)[len(current):]

		fmt.Fprintf(w, "\a")

		return s + rest, len(s), true
	}

	fmt.Fprintf(w, "%s%s\n", cli.prompt, line)

	for _, l := range columns(options, termWidth(w), 0) {
		fmt.Fprintf(w, "%s\n", l)
	}

	return "", 0, false
}

func (cli *CLI) completeWithQuestionMark(w io.Writer, line string, pos int) (string, int, bool) {
	done, current := split(line[:pos])
	sugs, complete := cli.suggestions(done, current)

	fmt.Fprintf(w, "%s%s\n", cli.prompt, line)

	cr := complete && current == ""
	if len(sugs) == 0 && !cr {
		fmt.Fprintf(w, "%% There is no matched command.\n")
		return line, pos, true
	}

	if cr {
		fmt.Fprintf(w, "  <cr>\n")
	}

	longest := 0
	var values []string
	for _, s := range sugs {
		if s.value {
			values = append(values, s.word)
		} else if len(s.word) > longest {
			longest = len(s.word)
		}
	}

	for _, s := range sugs {
		if s.value {
			continue
		}

		description := s.description
		if description == "" {
			description = "Missing description"
		}

		fmt.Fprintf(w, "  %-*s  %s\n", longest, s.word, description)
	}

	for _, l := range columns(values, termWidth(w), 5) {
		fmt.Fprintf(w, "%s\n", l)
	}

	return line, pos, true
}

func (cli *CLI) autocomplete(w io.Writer, line string, pos int, key rune) (string, int, bool) {
	defer func() {
		cli.lastKey = key
	}()

	switch key {
	case '\t':
		return cli.completeWithTab(w, line, pos)
	case '?':
		return cli.completeWithQuestionMark(w, line, pos)
	}

	return "", 0, false
}
