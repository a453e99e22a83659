package stream

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/san-kum/verletsim/internal/colorize"
	"github.com/san-kum/verletsim/internal/runner"
	"github.com/san-kum/verletsim/internal/solver"
)

const shutdownTimeout = 5 * time.Second

// Server runs a simulation in real time and streams it over websockets.
// The solver is only touched from the goroutine running Run.
type Server struct {
	hub    *Hub
	runner *runner.Runner
	logger *log.Logger
	addr   string
	every  int
	paused bool

	ln  net.Listener
	srv *http.Server
}

func NewServer(addr string, r *runner.Runner, every int, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if every < 1 {
		every = 1
	}
	s := &Server{
		hub:    NewHub(logger),
		runner: r,
		logger: logger,
		addr:   addr,
		every:  every,
	}
	r.AddObserver(runner.ObserverFunc(s.onFrame))
	return s
}

func (s *Server) Hub() *Hub { return s.hub }

// Handler serves the websocket at /ws and the latest frame at /frame.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", s.hub)
	mux.HandleFunc("/frame", func(w http.ResponseWriter, r *http.Request) {
		last := s.hub.Last()
		if last == nil {
			http.Error(w, "no frame yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(last)
	})
	return mux
}

// Listen binds the address. Run calls it if it has not been called.
func (s *Server) Listen() error {
	if s.ln != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.ln = ln
	return nil
}

// Addr returns the bound address, or the configured one before Listen.
func (s *Server) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

// Run serves HTTP and steps the runner against the wall clock until ctx is
// cancelled, then shuts the server down.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.srv = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() {
		if err := s.srv.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()
	s.logger.Info("streaming", "addr", "ws://"+s.Addr()+"/ws", "every", s.every)

	ticker := time.NewTicker(time.Duration(s.runner.Dt() * float64(time.Second)))
	defer ticker.Stop()

	s.hub.Broadcast(NewFrame(s.runner.Solver(), s.runner.Frame()))
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return s.shutdown()
		case err, ok := <-errc:
			if !ok {
				errc = nil
				continue
			}
			s.hub.Close()
			return err
		case cmd := <-s.hub.Commands():
			s.handle(cmd)
		case now := <-ticker.C:
			if !s.paused {
				s.runner.Advance(now.Sub(last).Seconds())
			}
			last = now
		}
	}
}

func (s *Server) onFrame(sol *solver.Solver, frame int) {
	if frame%s.every != 0 {
		return
	}
	if _, err := s.hub.Broadcast(NewFrame(sol, frame)); err != nil && !errors.Is(err, ErrHubClosed) {
		s.logger.Error("broadcast failed", "err", err)
	}
}

func (s *Server) handle(cmd Command) {
	switch cmd.Command {
	case "pause":
		s.paused = true
	case "resume":
		s.paused = false
	case "rainbow":
		if err := colorize.ApplyRainbow(s.runner.Solver()); err != nil {
			s.logger.Error("rainbow failed", "err", err)
		}
	default:
		s.logger.Warn("unknown command", "command", cmd.Command)
		return
	}
	s.logger.Info("command", "command", cmd.Command)
}

func (s *Server) shutdown() error {
	s.hub.Close()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("stream stopped", "frames", s.runner.Frame())
	return nil
}
