package stream

import (
	"context"
	"encoding/json"
	"image/color"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/verletsim/internal/particle"
	"github.com/san-kum/verletsim/internal/runner"
	"github.com/san-kum/verletsim/internal/solver"
)

var quiet = log.New(io.Discard)

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	url = "ws" + strings.TrimPrefix(url, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func newSolver(t *testing.T) *solver.Solver {
	t.Helper()
	s, err := solver.New(solver.DefaultOptions(),
		particle.New(r2.Vec{X: -20}, 6),
		particle.New(r2.Vec{X: 20, Y: 30}, 6),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestNewFrame(t *testing.T) {
	s := newSolver(t)
	if err := s.SetColors([]color.RGBA{{R: 255, A: 255}, {G: 128, B: 255, A: 255}}); err != nil {
		t.Fatal(err)
	}

	f := NewFrame(s, 7)
	if f.Step != 7 || len(f.Particles) != 2 {
		t.Fatalf("unexpected frame %+v", f)
	}
	b := f.Particles[1]
	if b.ID != 1 || b.X != 20 || b.Y != 30 || b.Radius != 6 {
		t.Errorf("unexpected body %+v", b)
	}
	if b.Color != "#0080ff" {
		t.Errorf("expected #0080ff, got %s", b.Color)
	}
}

func TestHubBroadcast(t *testing.T) {
	g := NewWithT(t)
	hub := NewHub(quiet)
	ts := httptest.NewServer(hub)
	defer ts.Close()

	conn := dial(t, ts.URL)
	g.Eventually(hub.Len).Should(Equal(1))

	n, err := hub.Broadcast(Frame{Step: 3, Time: 0.5, Particles: []Body{{ID: 1, X: 2, Radius: 4}}})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(n).To(Equal(1))

	var got Frame
	g.Expect(conn.ReadJSON(&got)).To(Succeed())
	g.Expect(got.Step).To(Equal(3))
	g.Expect(got.Particles).To(HaveLen(1))
	g.Expect(got.Particles[0].Radius).To(Equal(4.0))
}

func TestHubLateJoinerGetsLastFrame(t *testing.T) {
	g := NewWithT(t)
	hub := NewHub(quiet)
	ts := httptest.NewServer(hub)
	defer ts.Close()

	_, err := hub.Broadcast(Frame{Step: 9})
	g.Expect(err).NotTo(HaveOccurred())

	conn := dial(t, ts.URL)
	var got Frame
	g.Expect(conn.ReadJSON(&got)).To(Succeed())
	g.Expect(got.Step).To(Equal(9))
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	g := NewWithT(t)
	hub := NewHub(quiet)
	ts := httptest.NewServer(hub)
	defer ts.Close()

	conn := dial(t, ts.URL)
	g.Eventually(hub.Len).Should(Equal(1))

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()
	g.Eventually(hub.Len).Should(Equal(0))
}

func TestHubForwardsCommands(t *testing.T) {
	g := NewWithT(t)
	hub := NewHub(quiet)
	ts := httptest.NewServer(hub)
	defer ts.Close()

	conn := dial(t, ts.URL)
	g.Expect(conn.WriteJSON(Command{Command: "pause"})).To(Succeed())
	g.Eventually(hub.Commands()).Should(Receive(Equal(Command{Command: "pause"})))
}

func TestHubClose(t *testing.T) {
	g := NewWithT(t)
	hub := NewHub(quiet)
	ts := httptest.NewServer(hub)
	defer ts.Close()

	conn := dial(t, ts.URL)
	g.Eventually(hub.Len).Should(Equal(1))

	hub.Close()
	g.Expect(hub.Len()).To(Equal(0))
	_, _, err := conn.ReadMessage()
	g.Expect(websocket.IsCloseError(err, websocket.CloseGoingAway)).To(BeTrue())

	_, err = hub.Broadcast(Frame{})
	g.Expect(err).To(MatchError(ErrHubClosed))
}

func TestServerStreamsFrames(t *testing.T) {
	g := NewWithT(t)
	r := runner.New(newSolver(t), runner.WithLogger(quiet))
	srv := NewServer("127.0.0.1:0", r, 2, quiet)
	g.Expect(srv.Listen()).To(Succeed())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	conn := dial(t, "http://"+srv.Addr()+"/ws")
	var got Frame
	for got.Step == 0 {
		g.Expect(conn.ReadJSON(&got)).To(Succeed())
	}
	g.Expect(got.Step % 2).To(Equal(0))
	g.Expect(got.Particles).To(HaveLen(2))

	resp, err := http.Get("http://" + srv.Addr() + "/frame")
	g.Expect(err).NotTo(HaveOccurred())
	defer resp.Body.Close()
	g.Expect(resp.StatusCode).To(Equal(http.StatusOK))
	var last Frame
	g.Expect(json.NewDecoder(resp.Body).Decode(&last)).To(Succeed())
	g.Expect(last.Particles).To(HaveLen(2))

	cancel()
	g.Eventually(done).Should(Receive(BeNil()))
}

func TestServerCommands(t *testing.T) {
	g := NewWithT(t)
	s := newSolver(t)
	srv := NewServer("127.0.0.1:0", runner.New(s, runner.WithLogger(quiet)), 1, quiet)

	srv.handle(Command{Command: "pause"})
	g.Expect(srv.paused).To(BeTrue())
	srv.handle(Command{Command: "resume"})
	g.Expect(srv.paused).To(BeFalse())

	srv.handle(Command{Command: "rainbow"})
	g.Expect(s.Colors()).NotTo(ContainElement(particle.DefaultColor))

	srv.handle(Command{Command: "explode"})
	g.Expect(srv.paused).To(BeFalse())
}
