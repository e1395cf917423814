// Package shell is an interactive, IOS flavored command line for editing and
// inspecting a topology. Command words may be abbreviated to any unambiguous
// prefix.
package shell

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/davidbalbert/routersim/topology"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
	"golang.org/x/term"
)

// Handler runs a command. args holds the values of the command's parameters
// in order.
type Handler func(w io.Writer, args []string) error

type command struct {
	words       []string
	description string
	handler     Handler
}

func isParam(word string) bool {
	return strings.HasPrefix(word, "<")
}

func (c *command) String() string {
	return strings.Join(c.words, " ")
}

type match struct {
	cmd   *command
	args  []string
	exact int // literal words typed in full
}

// match reports whether tokens are a prefix of c, word by word.
func (c *command) match(tokens []string) (match, bool) {
	if len(tokens) > len(c.words) {
		return match{}, false
	}

	m := match{cmd: c}
	for i, tok := range tokens {
		word := c.words[i]

		if isParam(word) {
			m.args = append(m.args, tok)
			continue
		}

		if !strings.HasPrefix(word, tok) {
			return match{}, false
		}

		if word == tok {
			m.exact++
		}
	}

	return m, true
}

type readWriteFder interface {
	io.ReadWriter
	Fd() uintptr
}

type terminal struct {
	*term.Terminal
	fder
}

type CLI struct {
	running  bool
	prompt   string
	lastKey  rune
	commands []*command
	docs     map[string]string

	reg *topology.Registry
	log logrus.FieldLogger
}

// New returns a CLI that edits reg.
func New(reg *topology.Registry) *CLI {
	cli := &CLI{
		prompt: "routersim# ",
		docs:   make(map[string]string),
		reg:    reg,
		log:    logrus.WithField("component", "shell"),
	}

	cli.MustRegister("exit", "Exit the shell", func(w io.Writer, args []string) error {
		cli.running = false
		return nil
	})

	cli.MustRegister("quit", "Exit the shell", func(w io.Writer, args []string) error {
		cli.running = false
		return nil
	})

	cli.MustRegister("help", "List commands", func(w io.Writer, args []string) error {
		return cli.help(w)
	})

	cli.registerShowCommands()
	cli.registerRouterCommands()
	cli.registerInterfaceCommands()
	cli.registerRouteCommands()
	cli.registerLinkCommands()

	return cli
}

// Register adds a command. Words in angle brackets are parameters that match
// any single token; other words are literals.
func (cli *CLI) Register(declaration, description string, handler Handler) error {
	words := strings.Fields(declaration)
	if len(words) == 0 {
		return fmt.Errorf("empty command declaration")
	}

	if isParam(words[0]) {
		return fmt.Errorf("%s: command must start with a literal", declaration)
	}

	for _, c := range cli.commands {
		if slices.Equal(c.words, words) {
			return fmt.Errorf("%s: already registered", declaration)
		}
	}

	cli.commands = append(cli.commands, &command{
		words:       words,
		description: description,
		handler:     handler,
	})

	return nil
}

func (cli *CLI) MustRegister(declaration, description string, handler Handler) {
	if err := cli.Register(declaration, description, handler); err != nil {
		panic(err)
	}
}

// Document describes a command prefix that isn't a command on its own, for
// "?" help.
func (cli *CLI) Document(prefix, description string) {
	cli.docs[strings.Join(strings.Fields(prefix), " ")] = description
}

func (cli *CLI) help(w io.Writer) error {
	cmds := slices.Clone(cli.commands)
	slices.SortFunc(cmds, func(a, b *command) bool {
		return a.String() < b.String()
	})

	return printTable(w, cmds, []string{"Command", "Description"}, func(c *command) []string {
		return []string{c.String(), c.description}
	})
}

func (cli *CLI) runLine(line string, w io.Writer) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	tokens := strings.Fields(line)

	var complete []match
	partial := 0

	for _, c := range cli.commands {
		m, ok := c.match(tokens)
		if !ok {
			continue
		}

		if len(tokens) == len(c.words) {
			complete = append(complete, m)
		} else {
			partial++
		}
	}

	if len(complete) == 0 && partial == 0 {
		fmt.Fprintf(w, "%% Unknown command: %s\n", line)
		return
	} else if len(complete) == 0 {
		fmt.Fprintf(w, "%% Command incomplete: %s\n", line)
		return
	}

	// Prefer the command whose literals were typed in full.
	best := []match{complete[0]}
	for _, m := range complete[1:] {
		if m.exact > best[0].exact {
			best = []match{m}
		} else if m.exact == best[0].exact {
			best = append(best, m)
		}
	}

	if len(best) > 1 {
		fmt.Fprintf(w, "%% Ambiguous command: %s\n", line)
		return
	}

	m := best[0]
	if err := m.cmd.handler(w, m.args); err != nil {
		cli.log.WithError(err).Debugf("%s failed", m.cmd)
		fmt.Fprintf(w, "%% %v\n", err)
	}
}

// Run reads and executes lines from rw until exit, quit or a read error. rw
// should already be in raw mode.
func (cli *CLI) Run(rw readWriteFder) {
	t := &terminal{term.NewTerminal(rw, cli.prompt), rw}

	autocomplete := func(line string, pos int, key rune) (string, int, bool) {
		return cli.autocomplete(t, line, pos, key)
	}

	t.AutoCompleteCallback = autocomplete

	cli.running = true

	for cli.running {
		line, err := t.ReadLine()
		if err == io.EOF {
			// ^C makes ReadLine return io.EOF without consuming the line, so
			// start over with a fresh terminal.
			t = &terminal{term.NewTerminal(rw, cli.prompt), rw}
			t.AutoCompleteCallback = autocomplete

			fmt.Fprintln(t)
			continue
		} else if err != nil {
			fmt.Fprintf(t, "%% Error reading line: %v\n", err)
			break
		}

		cli.runLine(line, newPager(rw, t))
	}
}

// Exec runs each line read from r, writing output to w, until EOF or exit.
func (cli *CLI) Exec(r io.Reader, w io.Writer) error {
	s := bufio.NewScanner(r)

	cli.running = true
	for cli.running && s.Scan() {
		cli.runLine(s.Text(), w)
	}

	return s.Err()
}
