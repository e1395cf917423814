package shell

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/davidbalbert/routersim/topology"
)

func newCLI(t *testing.T, lines ...string) *CLI {
	cli := New(topology.NewRegistry(nil, nil))

	for _, line := range lines {
		w := &strings.Builder{}
		cli.runLine(line, w)

		if w.String() != "" {
			t.Fatalf("%s: unexpected output: %s", line, w.String())
		}
	}

	return cli
}

func run(cli *CLI, line string) string {
	w := &strings.Builder{}
	cli.runLine(line, w)
	return w.String()
}

func TestBuiltInExitCommand(t *testing.T) {
	cli := newCLI(t)

	cli.running = true
	run(cli, "exit")

	if cli.running {
		t.Fatal("CLI should not be running")
	}
}

func TestBuiltInQuitCommand(t *testing.T) {
	cli := newCLI(t)

	cli.running = true
	run(cli, "quit")

	if cli.running {
		t.Fatal("CLI should not be running")
	}
}

func TestEmptyInput(t *testing.T) {
	cli := newCLI(t)

	for _, line := range []string{"", " ", "\t "} {
		if out := run(cli, line); out != "" {
			t.Fatalf("Unexpected output: %s", out)
		}
	}
}

func TestRegisteredCommand(t *testing.T) {
	cli := newCLI(t)

	err := cli.Register("show version", "Show version information", func(w io.Writer, args []string) error {
		fmt.Fprintf(w, "Version 1.0.0\n")
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if out := run(cli, "sh ver"); out != "Version 1.0.0\n" {
		t.Fatalf("Unexpected output: %s", out)
	}

	if err := cli.Register("show version", "again", nil); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}

	if err := cli.Register("<router> show", "param first", nil); err == nil {
		t.Fatal("expected a leading parameter to fail")
	}
}

func TestUnknownIncompleteAndAmbiguous(t *testing.T) {
	cli := newCLI(t)

	tests := []struct {
		line string
		out  string
	}{
		{"frobnicate", "% Unknown command: frobnicate\n"},
		{"show", "% Command incomplete: show\n"},
		{"show ip route", "% Command incomplete: show ip route\n"},
		{"show routers extra", "% Unknown command: show routers extra\n"},
	}

	for _, test := range tests {
		if out := run(cli, test.line); out != test.out {
			t.Fatalf("%s: expected %q, got %q", test.line, test.out, out)
		}
	}

	cli.MustRegister("show rooms", "Conference rooms", func(w io.Writer, args []string) error {
		return nil
	})

	if out := run(cli, "show ro"); out != "% Ambiguous command: show ro\n" {
		t.Fatalf("Unexpected output: %s", out)
	}
}

func TestShowRouters(t *testing.T) {
	cli := newCLI(t,
		"router add R2",
		"router add R1 Cisco c7200 IOS",
	)

	want := strings.Join([]string{
		"Hostname   Brand     Model     OS",
		"--------   -------   -------   -------",
		"R1         Cisco     c7200     IOS",
		"R2         unknown   unknown   unknown",
		"",
	}, "\n")

	if out := run(cli, "show routers"); out != want {
		t.Fatalf("expected:\n%s\ngot:\n%s", want, out)
	}
}

func TestAddressAndRoutes(t *testing.T) {
	cli := newCLI(t,
		"router add R1",
		"interface add R1 G0/0",
		"interface add R1 G0/1",
		"ip address R1 G0/0 192.168.1.199/25",
		"ip route R1 0.0.0.0/0 8.8.8.8",
		"ip route R1 10.0.0.0/8 192.168.1.1 G0/0",
	)

	want := strings.Join([]string{
		"Interface   Address            Network            Hosts",
		"---------   ----------------   ----------------   -----------------------------------",
		"G0/0        192.168.1.199/25   192.168.1.128/25   126 (192.168.1.129 - 192.168.1.254)",
		"G0/1        unassigned                            ",
		"",
	}, "\n")

	if out := run(cli, "show interfaces R1"); out != want {
		t.Fatalf("expected:\n%s\ngot:\n%s", want, out)
	}

	want = strings.Join([]string{
		"Destination        Next Hop",
		"----------------   -----------------------",
		"default            8.8.8.8",
		"10.0.0.0/8         192.168.1.1 G0/0",
		"192.168.1.128/25   directly connected G0/0",
		"",
	}, "\n")

	if out := run(cli, "sh ip ro R1"); out != want {
		t.Fatalf("expected:\n%s\ngot:\n%s", want, out)
	}

	out := run(cli, "show ip route R1 192.168.1.130")
	if !strings.Contains(out, "192.168.1.128/25   directly connected G0/0") {
		t.Fatalf("unexpected lookup output:\n%s", out)
	}

	if out := run(cli, "no ip address R1 G0/0"); out != "" {
		t.Fatalf("Unexpected output: %s", out)
	}

	if out := run(cli, "show ip route R1"); strings.Contains(out, "192.168.1.128/25") {
		t.Fatalf("connected route should be gone:\n%s", out)
	}
}

func TestErrorsArePrefixed(t *testing.T) {
	cli := newCLI(t,
		"router add R1",
		"interface add R1 G0/0",
	)

	tests := []struct {
		line string
		msg  string
	}{
		{"ip address R1 G0/0 192.168.1.255/25", "broadcast"},
		{"ip address R1 G0/9 10.0.0.1/24", "not found"},
		{"ip address R9 G0/0 10.0.0.1/24", "router R9: not found"},
		{"interface add R1 G0/0", "already exists"},
		{"router add R1", "already exists"},
		{"ip route R1 10.0.0.0/8 10.0.0.256", "next hop"},
		{"no ip route R1 10.0.0.0/8", "not found"},
		{"show ip route R1 10.1.1.1", "no route to 10.1.1.1"},
	}

	for _, test := range tests {
		out := run(cli, test.line)
		if !strings.HasPrefix(out, "% ") || !strings.Contains(out, test.msg) {
			t.Fatalf("%s: expected %% error containing %q, got %q", test.line, test.msg, out)
		}
	}
}

func TestLinks(t *testing.T) {
	cli := newCLI(t,
		"router add R1",
		"router add R2",
		"interface add R1 G0/1",
		"interface add R2 G0/2",
		"connect R1 G0/1 R2 G0/2",
	)

	want := strings.Join([]string{
		"Interface   Peer   Peer Interface",
		"---------   ----   --------------",
		"G0/2        R1     G0/1",
		"",
	}, "\n")

	if out := run(cli, "show links R2"); out != want {
		t.Fatalf("expected:\n%s\ngot:\n%s", want, out)
	}

	if out := run(cli, "connect R1 G0/1 R2 G0/2"); !strings.Contains(out, "already connected") {
		t.Fatalf("Unexpected output: %s", out)
	}

	if out := run(cli, "hostname R1 RT1"); out != "" {
		t.Fatalf("Unexpected output: %s", out)
	}

	if out := run(cli, "show links R2"); !strings.Contains(out, "RT1") {
		t.Fatalf("link should follow the rename:\n%s", out)
	}

	if out := run(cli, "disconnect R2 G0/2 RT1 G0/1"); out != "" {
		t.Fatalf("Unexpected output: %s", out)
	}

	if out := run(cli, "interface delete R2 G0/2"); out != "" {
		t.Fatalf("Unexpected output: %s", out)
	}

	if out := run(cli, "no router RT1"); out != "" {
		t.Fatalf("Unexpected output: %s", out)
	}
}

func TestRunningConfig(t *testing.T) {
	cli := newCLI(t,
		"router add R1 Cisco c7200 IOS",
		"interface add R1 G0/0",
		"ip address R1 G0/0 10.0.0.1/24",
	)

	out := run(cli, "show running-config")

	for _, s := range []string{"hostname: R1", "name: G0/0", "address: 10.0.0.1/24"} {
		if !strings.Contains(out, s) {
			t.Fatalf("expected running config to contain %q, got:\n%s", s, out)
		}
	}
}

func TestHelp(t *testing.T) {
	cli := newCLI(t)

	out := run(cli, "help")

	for _, s := range []string{"connect <router> <iface> <router> <iface>", "show ip route <router>", "Exit the shell"} {
		if !strings.Contains(out, s) {
			t.Fatalf("expected help to contain %q, got:\n%s", s, out)
		}
	}
}

func TestTabCompletion(t *testing.T) {
	cli := newCLI(t,
		"router add R1",
		"router add R2",
		"interface add R1 G0/0",
	)

	tests := []struct {
		line string
		want string
		ok   bool
	}{
		{"sh", "show ", true},
		{"show ip r", "show ip route ", true},
		{"show ip route ", "show ip route R", true},
		{"show ip route R1", "show ip route R1 ", true},
		{"ip address R1 ", "ip address R1 G0/0 ", true},
		{"zzz", "", false},
	}

	for _, test := range tests {
		w := &strings.Builder{}
		cli.lastKey = 0

		line, pos, ok := cli.autocomplete(w, test.line, len(test.line), '\t')
		if ok != test.ok || line != test.want || (ok && pos != len(test.want)) {
			t.Fatalf("%q: expected (%q, %v), got (%q, %d, %v)", test.line, test.want, test.ok, line, pos, ok)
		}
	}
}

func TestQuestionMark(t *testing.T) {
	cli := newCLI(t, "router add R1")

	w := &strings.Builder{}
	line, pos, ok := cli.autocomplete(w, "show ", 5, '?')

	if !ok || line != "show " || pos != 5 {
		t.Fatalf("Unexpected result: %q %d %v", line, pos, ok)
	}

	for _, s := range []string{"routers", "Routers in the topology", "ip", "IP information"} {
		if !strings.Contains(w.String(), s) {
			t.Fatalf("expected %q in:\n%s", s, w.String())
		}
	}

	w.Reset()
	cli.autocomplete(w, "show routers ", 13, '?')

	if !strings.Contains(w.String(), "<cr>") {
		t.Fatalf("expected <cr> in:\n%s", w.String())
	}
}

func TestExec(t *testing.T) {
	cli := newCLI(t)

	script := strings.Join([]string{
		"router add R1",
		"interface add R1 G0/0",
		"ip address R1 G0/0 10.1.1.1/30",
		"bogus",
		"exit",
		"router add R2",
	}, "\n")

	w := &strings.Builder{}
	if err := cli.Exec(strings.NewReader(script), w); err != nil {
		t.Fatal(err)
	}

	if w.String() != "% Unknown command: bogus\n" {
		t.Fatalf("Unexpected output: %s", w.String())
	}

	if _, ok := cli.reg.Get("R2"); ok {
		t.Fatal("lines after exit should not run")
	}

	r1, ok := cli.reg.Get("R1")
	if !ok {
		t.Fatal("R1 should exist")
	}

	if _, ok := r1.Route("10.1.1.0/30"); !ok {
		t.Fatal("expected a directly connected route for 10.1.1.0/30")
	}
}
