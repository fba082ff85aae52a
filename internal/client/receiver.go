package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"matchpulse/internal/model"
)

// Receiver consumes the server's SSE stream of one subscriber.
type Receiver struct {
	streamURL  string
	httpClient *http.Client
	reconnect  *rate.Limiter
	log        *zap.Logger
}

// NewReceiver streams baseURL/sse/<subscriberID>. Reconnects are spaced by at
// least retry.
func NewReceiver(baseURL, subscriberID string, retry time.Duration, logger *zap.Logger) *Receiver {
	if retry <= 0 {
		retry = 3 * time.Second
	}
	return &Receiver{
		streamURL:  strings.TrimRight(baseURL, "/") + "/sse/" + url.PathEscape(subscriberID),
		httpClient: &http.Client{},
		reconnect:  rate.NewLimiter(rate.Every(retry), 1),
		log:        logger,
	}
}

// Run streams until ctx is cancelled, reconnecting after stream failures.
// Every event, backfilled or live, is passed to handle.
func (r *Receiver) Run(ctx context.Context, handle func(model.NotificationEvent)) error {
	for {
		if err := r.reconnect.Wait(ctx); err != nil {
			return ctx.Err()
		}
		err := r.Stream(ctx, handle)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.log.Warn("stream ended, reconnecting", zap.String("url", r.streamURL), zap.Error(err))
	}
}

// Stream reads one connection until it ends.
func (r *Receiver) Stream(ctx context.Context, handle func(model.NotificationEvent)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.streamURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	res, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("connect: unexpected status %d", res.StatusCode)
	}

	scanner := bufio.NewScanner(res.Body)
	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if data.Len() > 0 {
				r.dispatch(data.String(), handle)
				data.Reset()
			}
		case strings.HasPrefix(line, ":"):
			// heartbeat
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return errors.New("stream closed by server")
}

func (r *Receiver) dispatch(data string, handle func(model.NotificationEvent)) {
	var event model.NotificationEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		r.log.Warn("skipping undecodable event", zap.Error(err))
		return
	}
	handle(event)
}
