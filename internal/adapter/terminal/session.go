package terminal

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/niksmo/prime-house/internal/core/domain"
	"github.com/niksmo/prime-house/internal/core/port"
	"github.com/niksmo/prime-house/internal/core/store"
)

// A Session glues a store to the live feed and the user's commands.
// It redraws after every snapshot and after every command; the store
// setters themselves never trigger a redraw.
type Session struct {
	mu       sync.Mutex
	store    *store.Store
	renderer Renderer
	loading  bool
	lastErr  string
}

func NewSession(st *store.Store, r Renderer) *Session {
	return &Session{store: st, renderer: r, loading: true}
}

// Run renders until ctx is done, the input ends or the user quits.
func (s *Session) Run(
	ctx context.Context, sub port.PropertiesSubscriber, in io.Reader,
) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sub.Subscribe(ctx, s.OnChange, s.OnError)
	}()

	s.render()

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for quit := false; !quit; {
		select {
		case <-ctx.Done():
			quit = true
		case line, ok := <-lines:
			quit = !ok || s.Exec(line)
		}
	}

	cancel()
	wg.Wait()
}

func (s *Session) OnChange(ps []domain.Property) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store.SetProperties(ps)
	s.loading = false
	s.lastErr = ""
	s.renderLocked()
}

func (s *Session) OnError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastErr = err.Error()
	s.renderLocked()
}

// Exec applies one command line and reports whether the user quits.
func (s *Session) Exec(line string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "quit", "exit", "q":
		return true
	case "type":
		s.store.SetFilter(arg)
	case "search":
		s.store.SetSearch(arg)
	case "clear":
		s.store.SetFilter(domain.FilterAll)
		s.store.SetSearch("")
	case "":
	default:
		s.lastErr = "unknown command: " + cmd
	}

	s.renderLocked()
	return false
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) render() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderLocked()
}

func (s *Session) viewLocked() View {
	return View{
		Loading:    s.loading,
		Filter:     s.store.Filter(),
		Search:     s.store.Search(),
		Properties: s.store.FilteredProperties(),
		LastError:  s.lastErr,
	}
}

func (s *Session) renderLocked() {
	const op = "Session.render"
	if err := s.renderer.Render(s.viewLocked()); err != nil {
		slog.Error("failed to render", "op", op, "err", err)
	}
}
