package shell

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"golang.org/x/term"
)

// pager pauses long command output at each screenful, like more(1). If in is
// a terminal it must already be in raw mode. If it isn't, output passes
// straight through to out.
type pager struct {
	fd      int
	out     io.Writer
	in      *bufio.Reader
	pending bytes.Buffer
	paging  bool
	lines   int
	quit    bool
}

var _ io.Writer = &pager{}

func newPager(in io.Reader, out io.Writer) *pager {
	p := &pager{fd: -1, out: out, in: bufio.NewReader(in)}

	if f, ok := in.(fder); ok {
		p.fd = int(f.Fd())
		p.paging = term.IsTerminal(p.fd)
	}

	return p
}

func (p *pager) Write(b []byte) (int, error) {
	if !p.paging {
		return p.out.Write(b)
	}

	if p.quit {
		return 0, io.EOF
	}

	_, height, err := term.GetSize(p.fd)
	if err != nil {
		return p.out.Write(b)
	}

	p.pending.Write(b)

	written := 0
	for p.pending.Len() > 0 {
		// height-1 leaves a row for the prompt.
		if p.lines >= height-1 {
			if err := p.more(); err != nil {
				return written, err
			}

			if !p.paging {
				n, err := p.out.Write(p.pending.Bytes())
				p.pending.Reset()
				return written + n, err
			}
		}

		line, err := p.pending.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return written, err
		}

		n, err := p.out.Write(line)
		written += n
		if err != nil {
			return written, err
		}

		p.lines++
	}

	return len(b), nil
}

func (p *pager) more() error {
	prompt := []byte("--More--")
	erase := []byte("\r" + strings.Repeat(" ", len(prompt)) + "\r")

	for {
		if _, err := p.out.Write(prompt); err != nil {
			return err
		}

		c, err := p.in.ReadByte()
		if err != nil {
			return err
		}

		if _, err := p.out.Write(erase); err != nil {
			return err
		}

		switch c {
		case 'q':
			p.quit = true
			return io.EOF
		case ' ':
			p.lines = 0
			return nil
		case '\r', 'j':
			p.lines--
			return nil
		case 'G':
			p.paging = false
			return nil
		}
	}
}
