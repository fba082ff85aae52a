//go:build integration

package e2e

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"matchpulse/internal/config"
	"matchpulse/internal/model"
	"matchpulse/internal/queue/rabbitmq"
)

func TestRelayFlow(t *testing.T) {
	ctx := context.Background()
	amqpURL, cleanup := setupRabbitMQContainer(t, ctx)
	defer cleanup()

	cfg := &config.Config{
		HistoryLimit:        10,
		RabbitMQURL:         amqpURL,
		RabbitExchange:      "notifications",
		RabbitQueue:         "notifications.matchpulse",
		RabbitRoutingKey:    "notification.*",
		RabbitConsumerTag:   "matchpulse-consumer",
		RabbitPublishPrefix: "notification",
	}
	logger := zap.NewNop()
	p := newProvider(t)
	s := newStack(t, cfg, p, rabbitmq.NewPublisher(cfg, logger))
	consumer := rabbitmq.NewConsumer(cfg, s.svc, logger)

	consumeCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	errCh := make(chan error, 1)
	go func() {
		errCh <- consumer.Start(consumeCtx)
	}()
	require.NoError(t, waitForConsumer(ctx, amqpURL, cfg.RabbitQueue, 5*time.Second))

	_, err := s.registry.Follow(ctx, "s1", "", "Fnatic")
	require.NoError(t, err)

	sseResp, err := http.Get(s.server.URL + "/sse/s1")
	require.NoError(t, err)
	defer sseResp.Body.Close()
	require.Equal(t, http.StatusOK, sseResp.StatusCode)
	reader := bufio.NewReader(sseResp.Body)
	require.Eventually(t, func() bool { return s.hub.Connections("s1") == 1 }, time.Second, 10*time.Millisecond)

	p.set("live_score", segments(fnaticHeretics(0, 0)))
	require.Len(t, s.synth.Cycle(ctx), 1)

	data, err := readSSEData(reader, 5*time.Second)
	require.NoError(t, err)
	var event model.NotificationEvent
	require.NoError(t, json.Unmarshal([]byte(data), &event))
	require.Equal(t, model.EventMatchStart, event.Type)
	require.Equal(t, "s1", event.SubscriberID)
	require.NotZero(t, event.ID, "ids are assigned on the consuming side")

	cancel()
	select {
	case <-time.After(3 * time.Second):
		t.Fatalf("consumer did not stop")
	case <-errCh:
	}
}

func waitForConsumer(ctx context.Context, amqpURL, queue string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			conn, err := amqp.Dial(amqpURL)
			if err != nil {
				continue
			}
			ch, err := conn.Channel()
			if err != nil {
				_ = conn.Close()
				continue
			}
			q, err := ch.QueueInspect(queue)
			_ = ch.Close()
			_ = conn.Close()
			if err != nil {
				continue
			}
			if q.Consumers > 0 {
				return nil
			}
		}
	}
}

const amqpPort = nat.Port("5672/tcp")

func setupRabbitMQContainer(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "rabbitmq:3.12-alpine",
		ExposedPorts: []string{string(amqpPort)},
		WaitingFor:   wait.ForListeningPort(amqpPort).WithStartupTimeout(2 * time.Minute),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, amqpPort)
	require.NoError(t, err)

	amqpURL := "amqp://guest:guest@" + host + ":" + port.Port() + "/"

	cleanup := func() {
		_ = container.Terminate(ctx)
	}
	return amqpURL, cleanup
}
