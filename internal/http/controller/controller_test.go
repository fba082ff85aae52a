package controller

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"matchpulse/internal/config"
	"matchpulse/internal/domain"
	"matchpulse/internal/favorites"
	"matchpulse/internal/http/dto"
	"matchpulse/internal/http/resp"
	"matchpulse/internal/metrics"
	"matchpulse/internal/model"
	"matchpulse/internal/queue/rabbitmq"
	"matchpulse/internal/service/catalog"
	"matchpulse/internal/service/notify"
	"matchpulse/internal/sse"
	"matchpulse/internal/store/memory"
	"matchpulse/internal/ws"
)

type catalogSourceMock struct {
	mock.Mock
}

func (m *catalogSourceMock) FetchTeams(ctx context.Context, region string) ([]model.Team, error) {
	args := m.Called(ctx, region)
	return args.Get(0).([]model.Team), args.Error(1)
}

func (m *catalogSourceMock) FetchNews(ctx context.Context) ([]model.Article, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Article), args.Error(1)
}

type testEnv struct {
	router   *gin.Engine
	registry *favorites.Registry
	svc      *notify.Service
	hub      *sse.Hub
	source   *catalogSourceMock
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		HistoryLimit:    10,
		SSEHeartbeat:    time.Hour,
		SSEClientBuffer: 8,
		TeamsRegion:     "eu",
		TeamsCacheTTL:   time.Minute,
		NewsCacheTTL:    time.Minute,
	}
	m := metrics.New()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	registry := favorites.New()
	go registry.Run(ctx)
	hub := sse.NewHub(cfg, m, zap.NewNop())
	go hub.Run(ctx)

	svc := notify.NewService(cfg, memory.New(100, zap.NewNop()), hub, rabbitmq.NewPublisher(cfg, zap.NewNop()), zap.NewNop())
	source := &catalogSourceMock{}
	catalogSvc := catalog.NewService(cfg, source, m, zap.NewNop())
	handler := NewHandler(cfg, registry, svc, catalogSvc, hub, ws.NewHandler(cfg, hub, svc, zap.NewNop()), zap.NewNop())

	router := gin.New()
	router.POST("/favorites", handler.Follow)
	router.DELETE("/favorites", handler.Unfollow)
	router.GET("/favorites", handler.ListFavorites)
	router.POST("/notifications/settings", handler.UpdateSettings)
	router.GET("/notifications", handler.ListNotifications)
	router.GET("/sse/:subscriberId", handler.SSE)
	router.GET("/teams", handler.Teams)
	router.GET("/news", handler.News)

	return &testEnv{router: router, registry: registry, svc: svc, hub: hub, source: source}
}

func performJSONRequest(t *testing.T, router *gin.Engine, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if raw, ok := body.(string); ok {
		reader = bytes.NewReader([]byte(raw))
	} else {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestFollowController(t *testing.T) {
	t.Run("invalid json", func(t *testing.T) {
		env := setup(t)
		rec := performJSONRequest(t, env.router, http.MethodPost, "/favorites", "{", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, resp.CodeBadRequest, decodeError(t, rec).Code)
	})

	t.Run("missing team", func(t *testing.T) {
		env := setup(t)
		rec := performJSONRequest(t, env.router, http.MethodPost, "/favorites", dto.FollowRequest{SubscriberID: "s1"}, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("subscriber from header", func(t *testing.T) {
		env := setup(t)
		rec := performJSONRequest(t, env.router, http.MethodPost, "/favorites",
			dto.FollowRequest{TeamID: "2593", TeamName: "Fnatic"},
			http.Header{"X-Subscriber-Id": {"s1"}})
		require.Equal(t, http.StatusCreated, rec.Code)

		var fav model.Favorite
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fav))
		require.Equal(t, "s1", fav.SubscriberID)
		require.Equal(t, "2593", fav.TeamID)
		require.Equal(t, model.DefaultPreferences(), fav.Preferences)

		followers, err := env.registry.FavoritesFor(context.Background(), "fnatic")
		require.NoError(t, err)
		require.Len(t, followers, 1)
	})
}

func TestUnfollowController(t *testing.T) {
	env := setup(t)
	_, err := env.registry.Follow(context.Background(), "s1", "", "Fnatic")
	require.NoError(t, err)

	rec := performJSONRequest(t, env.router, http.MethodDelete, "/favorites", dto.UnfollowRequest{SubscriberID: "s1", TeamName: "Fnatic"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status dto.StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.Equal(t, resp.CodeRemoved, status.Code)

	rec = performJSONRequest(t, env.router, http.MethodDelete, "/favorites", dto.UnfollowRequest{SubscriberID: "s1", TeamName: "Fnatic"}, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, resp.CodeNotFound, decodeError(t, rec).Code)
}

func TestListFavoritesController(t *testing.T) {
	env := setup(t)
	for _, team := range []string{"Team Heretics", "Fnatic"} {
		_, err := env.registry.Follow(context.Background(), "s1", "", team)
		require.NoError(t, err)
	}

	rec := performJSONRequest(t, env.router, http.MethodGet, "/favorites", nil, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = performJSONRequest(t, env.router, http.MethodGet, "/favorites?subscriberId=s1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body dto.FavoritesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 2)
	require.Equal(t, "Fnatic", body.Items[0].TeamName)
}

func TestUpdateSettingsController(t *testing.T) {
	prefs := model.NotificationPreferences{MatchStart: true, MatchEnd: true}

	t.Run("not following", func(t *testing.T) {
		env := setup(t)
		rec := performJSONRequest(t, env.router, http.MethodPost, "/notifications/settings",
			dto.SettingsRequest{SubscriberID: "s1", TeamName: "Fnatic", Settings: &prefs}, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, resp.CodeNotFound, decodeError(t, rec).Code)
	})

	t.Run("settings required", func(t *testing.T) {
		env := setup(t)
		rec := performJSONRequest(t, env.router, http.MethodPost, "/notifications/settings",
			dto.SettingsRequest{SubscriberID: "s1", TeamName: "Fnatic"}, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("updates preferences", func(t *testing.T) {
		env := setup(t)
		_, err := env.registry.Follow(context.Background(), "s1", "", "Fnatic")
		require.NoError(t, err)

		rec := performJSONRequest(t, env.router, http.MethodPost, "/notifications/settings",
			dto.SettingsRequest{SubscriberID: "s1", TeamID: "2593", TeamName: "fnatic", Settings: &prefs}, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		fav, err := env.registry.Get(context.Background(), "s1", "Fnatic")
		require.NoError(t, err)
		require.Equal(t, prefs, fav.Preferences)
	})

	t.Run("updates preferences by team id", func(t *testing.T) {
		env := setup(t)
		_, err := env.registry.Follow(context.Background(), "s1", "2593", "Fnatic")
		require.NoError(t, err)

		rec := performJSONRequest(t, env.router, http.MethodPost, "/notifications/settings",
			dto.SettingsRequest{SubscriberID: "s1", TeamID: "2593", Settings: &prefs}, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var updated model.Favorite
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		require.Equal(t, "Fnatic", updated.TeamName)
		require.Equal(t, prefs, updated.Preferences)

		fav, err := env.registry.Get(context.Background(), "s1", "Fnatic")
		require.NoError(t, err)
		require.Equal(t, prefs, fav.Preferences)
	})

	t.Run("unknown team id", func(t *testing.T) {
		env := setup(t)
		_, err := env.registry.Follow(context.Background(), "s1", "2593", "Fnatic")
		require.NoError(t, err)

		rec := performJSONRequest(t, env.router, http.MethodPost, "/notifications/settings",
			dto.SettingsRequest{SubscriberID: "s1", TeamID: "1001", Settings: &prefs}, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, resp.CodeNotFound, decodeError(t, rec).Code)
	})

	t.Run("no team given", func(t *testing.T) {
		env := setup(t)
		rec := performJSONRequest(t, env.router, http.MethodPost, "/notifications/settings",
			dto.SettingsRequest{SubscriberID: "s1", Settings: &prefs}, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListNotificationsController(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	for _, typ := range []model.EventType{model.EventMatchStart, model.EventScoreChange, model.EventMatchEnd} {
		_, err := env.svc.Deliver(ctx, model.NotificationEvent{Type: typ, SubscriberID: "s1", MatchID: "m1"})
		require.NoError(t, err)
	}

	rec := performJSONRequest(t, env.router, http.MethodGet, "/notifications?limit=2", nil, http.Header{"X-Subscriber-Id": {"s1"}})
	require.Equal(t, http.StatusOK, rec.Code)
	var body dto.HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 2)
	require.Equal(t, model.EventMatchEnd, body.Items[0].Type)
	require.Equal(t, model.EventScoreChange, body.Items[1].Type)

	rec = performJSONRequest(t, env.router, http.MethodGet, "/notifications?subscriberId=s1&limit=-1", nil, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = performJSONRequest(t, env.router, http.MethodGet, "/notifications?subscriberId=nobody", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"subscriber_id":"nobody","items":[]}`, rec.Body.String())
}

func TestCatalogControllers(t *testing.T) {
	t.Run("teams", func(t *testing.T) {
		env := setup(t)
		env.source.On("FetchTeams", mock.Anything, "na").Return([]model.Team{{Rank: 1, Name: "Sentinels"}}, nil).Once()

		rec := performJSONRequest(t, env.router, http.MethodGet, "/teams?region=na", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var body dto.TeamsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "na", body.Region)
		require.Equal(t, "Sentinels", body.Items[0].Name)

		rec = performJSONRequest(t, env.router, http.MethodGet, "/teams?region=na", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		env.source.AssertExpectations(t)
	})

	t.Run("news unavailable", func(t *testing.T) {
		env := setup(t)
		env.source.On("FetchNews", mock.Anything).Return([]model.Article(nil), domain.ErrUnavailable).Once()

		rec := performJSONRequest(t, env.router, http.MethodGet, "/news", nil, nil)
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		require.Equal(t, resp.CodeUnavailable, decodeError(t, rec).Code)
	})
}

func TestSSEController(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	_, err := env.svc.Deliver(ctx, model.NotificationEvent{Type: model.EventMatchStart, SubscriberID: "s1", MatchID: "m1"})
	require.NoError(t, err)

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, srv.URL+"/sse/s1", nil)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, "text/event-stream", res.Header.Get("Content-Type"))

	reader := bufio.NewReader(res.Body)
	backfill := readFrame(t, reader)
	require.Equal(t, "1", backfill["id"])
	require.Equal(t, string(model.EventMatchStart), backfill["event"])

	require.Eventually(t, func() bool { return env.hub.Connections("s1") == 1 }, time.Second, 10*time.Millisecond)
	_, err = env.svc.Deliver(ctx, model.NotificationEvent{Type: model.EventScoreChange, SubscriberID: "s1", MatchID: "m1"})
	require.NoError(t, err)

	live := readFrame(t, reader)
	require.Equal(t, "2", live["id"])
	var event model.NotificationEvent
	require.NoError(t, json.Unmarshal([]byte(live["data"]), &event))
	require.Equal(t, model.EventScoreChange, event.Type)

	cancel()
	require.Eventually(t, func() bool { return env.hub.Connections("s1") == 0 }, 2*time.Second, 10*time.Millisecond)
}

// readFrame reads one SSE frame into a field map, skipping comments.
func readFrame(t *testing.T, r *bufio.Reader) map[string]string {
	t.Helper()
	frame := make(map[string]string)
	done := make(chan error, 1)
	go func() {
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				done <- err
				return
			}
			line = strings.TrimRight(line, "\n")
			if line == "" {
				if len(frame) > 0 {
					done <- nil
					return
				}
				continue
			}
			if strings.HasPrefix(line, ":") {
				continue
			}
			key, value, _ := strings.Cut(line, ": ")
			frame[key] = value
		}
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for sse frame")
	}
	return frame
}
