package e2e

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"matchpulse/internal/config"
	"matchpulse/internal/favorites"
	httpserver "matchpulse/internal/http"
	"matchpulse/internal/http/controller"
	"matchpulse/internal/matchstate"
	"matchpulse/internal/metrics"
	"matchpulse/internal/queue"
	"matchpulse/internal/service/catalog"
	"matchpulse/internal/service/notify"
	"matchpulse/internal/service/synth"
	"matchpulse/internal/sse"
	"matchpulse/internal/store"
	"matchpulse/internal/upstream"
	"matchpulse/internal/ws"
)

// provider serves the three match collections of the upstream API with
// bodies that tests swap between polls.
type provider struct {
	mu     sync.Mutex
	bodies map[string]string
	server *httptest.Server
}

func newProvider(t *testing.T) *provider {
	t.Helper()
	p := &provider{bodies: map[string]string{
		"upcoming":   segments(),
		"live_score": segments(),
		"results":    segments(),
	}}
	p.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		body, ok := p.bodies[r.URL.Query().Get("q")]
		p.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(p.server.Close)
	return p
}

func (p *provider) set(collection, body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bodies[collection] = body
}

func segments(records ...string) string {
	return `{"data":{"status":200,"segments":[` + strings.Join(records, ",") + `]}}`
}

func fnaticHeretics(score1, score2 int) string {
	return fmt.Sprintf(`{"team1":"Fnatic","team2":"Team Heretics","score1":"%d","score2":"%d","match_event":"Masters Toronto","match_page":"https://www.vlr.gg/500001/fnatic-vs-team-heretics"}`, score1, score2)
}

type stack struct {
	server   *httptest.Server
	synth    *synth.Synthesizer
	svc      *notify.Service
	hub      *sse.Hub
	registry *favorites.Registry
}

// newStack wires the server the way the injector does, against the fake
// provider and with the given publisher.
func newStack(t *testing.T, cfg *config.Config, p *provider, publisher queue.Publisher) *stack {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg.UpstreamBaseURL = p.server.URL
	if cfg.UpstreamTimeout == 0 {
		cfg.UpstreamTimeout = time.Second
	}
	if cfg.UpstreamRPM == 0 {
		cfg.UpstreamRPM = 6000
	}
	if cfg.SSEHeartbeat == 0 {
		cfg.SSEHeartbeat = 5 * time.Second
	}
	logger := zap.NewNop()
	m := metrics.New()

	hub := sse.NewHub(cfg, m, logger)
	registry := favorites.New()
	client := upstream.NewClient(cfg, logger, m)
	svc := notify.NewService(cfg, store.NewStore(cfg, logger), hub, publisher, logger)
	synthesizer := synth.New(cfg, client, matchstate.New(), registry, svc, m, logger)
	handler := controller.NewHandler(cfg, registry, svc, catalog.NewService(cfg, client, m, logger), hub, ws.NewHandler(cfg, hub, svc, logger), logger)
	router := httpserver.NewRouter(cfg, handler, m, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	go registry.Run(ctx)

	server := httptest.NewServer(router)
	t.Cleanup(func() {
		server.Close()
		cancel()
	})
	return &stack{server: server, synth: synthesizer, svc: svc, hub: hub, registry: registry}
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, []byte, string) error { return nil }

func readSSEData(reader *bufio.Reader, timeout time.Duration) (string, error) {
	type result struct {
		data string
		err  error
	}
	ch := make(chan result, 1)

	go func() {
		var dataLines []string
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				ch <- result{"", err}
				return
			}
			line = strings.TrimRight(line, "\r\n")
			if line == "" {
				if len(dataLines) > 0 {
					ch <- result{strings.Join(dataLines, "\n"), nil}
					return
				}
				continue
			}
			if strings.HasPrefix(line, ":") {
				continue
			}
			if strings.HasPrefix(line, "data:") {
				dataLines = append(dataLines, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
			}
		}
	}()

	select {
	case res := <-ch:
		return res.data, res.err
	case <-time.After(timeout):
		return "", context.DeadlineExceeded
	}
}
