package api

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/davidbalbert/routersim/events"
	"github.com/davidbalbert/routersim/router"
	"github.com/davidbalbert/routersim/rpc"
	"github.com/davidbalbert/routersim/topology"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type harness struct {
	reg      *topology.Registry
	bus      *events.Bus
	client   *Client
	shutdown chan struct{}
}

func setup(t *testing.T) *harness {
	bus := events.NewBus()
	reg := topology.NewRegistry(bus, nil)

	r1 := router.New(router.Identity{Hostname: "R1", Brand: "Cisco", Model: "c7200", OS: "IOS"})
	r2 := router.New(router.Identity{Hostname: "R2", Brand: "Cisco", Model: "Nexus", OS: "NXOS"})

	for _, r := range []*router.Router{r1, r2} {
		if err := reg.Add(r); err != nil {
			t.Fatal(err)
		}
	}

	for _, step := range []error{
		r1.AddInterface("G0/0"),
		r1.AddInterface("G0/1"),
		r2.AddInterface("G0/2"),
		r1.SetIP("G0/0", "192.168.1.199/25"),
		r1.AddRoute("0.0.0.0/0", "8.8.8.8", ""),
		reg.Connect(topology.Endpoint{Router: "R1", Interface: "G0/1"}, topology.Endpoint{Router: "R2", Interface: "G0/2"}),
	} {
		if step != nil {
			t.Fatal(step)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	shutdown := make(chan struct{})

	s := NewServer(reg, bus, "", func() { close(shutdown) }, "1.2.3")
	lis := bufconn.Listen(1 << 20)

	done := make(chan error, 1)
	go func() {
		done <- s.Serve(ctx, lis)
	}()

	client, err := Dial(ctx, "bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		client.Close()
		cancel()
		if err := <-done; err != nil {
			t.Errorf("serve: %v", err)
		}
	})

	return &harness{reg: reg, bus: bus, client: client, shutdown: shutdown}
}

func TestGetVersion(t *testing.T) {
	h := setup(t)

	v, err := h.client.GetVersion(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if v != "1.2.3" {
		t.Fatalf("expected 1.2.3, got %q", v)
	}
}

func TestGetRouters(t *testing.T) {
	h := setup(t)

	routers, err := h.client.GetRouters(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(routers) != 2 {
		t.Fatalf("expected 2 routers, got %d", len(routers))
	}

	want := rpc.RouterInfo{Hostname: "R1", Brand: "Cisco", Model: "c7200", OS: "IOS"}
	if routers[0] != want {
		t.Fatalf("expected %+v, got %+v", want, routers[0])
	}
}

func TestGetInterfaces(t *testing.T) {
	h := setup(t)

	ifaces, err := h.client.GetInterfaces(context.Background(), "R1")
	if err != nil {
		t.Fatal(err)
	}

	want := []rpc.InterfaceInfo{
		{Name: "G0/0", Address: "192.168.1.199/25", Network: "192.168.1.128/25", Hosts: 126},
		{Name: "G0/1", Address: "unassigned"},
	}

	if len(ifaces) != len(want) {
		t.Fatalf("expected %d interfaces, got %d", len(want), len(ifaces))
	}

	for i := range want {
		if ifaces[i] != want[i] {
			t.Fatalf("expected %+v, got %+v", want[i], ifaces[i])
		}
	}
}

func TestGetRoutes(t *testing.T) {
	h := setup(t)

	routes, err := h.client.GetRoutes(context.Background(), "R1")
	if err != nil {
		t.Fatal(err)
	}

	want := []rpc.RouteInfo{
		{Destination: "default", NextHop: "8.8.8.8"},
		{Destination: "192.168.1.128/25", NextHop: "directly connected G0/0"},
	}

	if len(routes) != len(want) {
		t.Fatalf("expected %d routes, got %d", len(want), len(routes))
	}

	for i := range want {
		if routes[i] != want[i] {
			t.Fatalf("expected %+v, got %+v", want[i], routes[i])
		}
	}

	routes, err = h.client.GetRoutes(context.Background(), "R2")
	if err != nil {
		t.Fatal(err)
	}

	if len(routes) != 1 || routes[0].NextHop != "not set" {
		t.Fatalf("expected only an unset default route, got %+v", routes)
	}
}

func TestGetLinks(t *testing.T) {
	h := setup(t)

	links, err := h.client.GetLinks(context.Background(), "R2")
	if err != nil {
		t.Fatal(err)
	}

	want := rpc.LinkInfo{Interface: "G0/2", Peer: "R1", PeerInterface: "G0/1"}
	if len(links) != 1 || links[0] != want {
		t.Fatalf("expected [%+v], got %+v", want, links)
	}
}

func TestUnknownRouter(t *testing.T) {
	h := setup(t)

	_, err := h.client.GetRoutes(context.Background(), "R9")
	if status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestShutdown(t *testing.T) {
	h := setup(t)

	if err := h.client.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}

	select {
	case <-h.shutdown:
	case <-time.After(time.Second):
		t.Fatal("shutdown func was not called")
	}
}

func TestWatchEvents(t *testing.T) {
	h := setup(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan rpc.EventInfo, 1)
	errc := make(chan error, 1)

	go func() {
		errc <- h.client.WatchEvents(ctx, func(e rpc.EventInfo) error {
			received <- e
			return nil
		})
	}()

	deadline := time.Now().Add(5 * time.Second)
	for h.bus.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("watcher never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	r1, _ := h.reg.Get("R1")
	if err := r1.AddInterface("G0/7"); err != nil {
		t.Fatal(err)
	}

	select {
	case e := <-received:
		want := rpc.EventInfo{Type: string(events.InterfaceAdded), Router: "R1", Interface: "G0/7"}
		if e != want {
			t.Fatalf("expected %+v, got %+v", want, e)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no event received")
	}

	cancel()

	select {
	case <-errc:
	case <-time.After(5 * time.Second):
		t.Fatal("WatchEvents did not return after cancel")
	}
}
