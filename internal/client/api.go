package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"matchpulse/internal/http/dto"
	"matchpulse/internal/model"
)

const teamsMaxAge = 5 * time.Minute

// API calls the server's REST surface on behalf of one subscriber and keeps
// the local preference copies in step with it.
type API struct {
	baseURL      string
	subscriberID string
	httpClient   *http.Client
	store        *LocalStore
}

func NewAPI(baseURL, subscriberID string, store *LocalStore) *API {
	return &API{
		baseURL:      strings.TrimRight(baseURL, "/"),
		subscriberID: subscriberID,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		store:        store,
	}
}

func (a *API) Follow(ctx context.Context, teamID, teamName string) (model.Favorite, error) {
	var fav model.Favorite
	body := dto.FollowRequest{SubscriberID: a.subscriberID, TeamID: teamID, TeamName: teamName}
	if err := a.do(ctx, http.MethodPost, "/favorites", body, &fav); err != nil {
		return fav, err
	}
	return fav, a.store.PutPreferences(TeamPrefKey(fav.TeamName), fav.Preferences)
}

func (a *API) Unfollow(ctx context.Context, teamName string) error {
	body := dto.UnfollowRequest{SubscriberID: a.subscriberID, TeamName: teamName}
	if err := a.do(ctx, http.MethodDelete, "/favorites", body, nil); err != nil {
		return err
	}
	return a.store.DeletePreferences(TeamPrefKey(teamName))
}

func (a *API) UpdateSettings(ctx context.Context, teamName string, prefs model.NotificationPreferences) (model.Favorite, error) {
	var fav model.Favorite
	body := dto.SettingsRequest{SubscriberID: a.subscriberID, TeamName: teamName, Settings: &prefs}
	if err := a.do(ctx, http.MethodPost, "/notifications/settings", body, &fav); err != nil {
		return fav, err
	}
	return fav, a.store.PutPreferences(TeamPrefKey(teamName), fav.Preferences)
}

// Teams serves the ranking of region from the local cache while it is fresh.
func (a *API) Teams(ctx context.Context, region string) ([]model.Team, error) {
	key := "teams:" + region
	var cached dto.TeamsResponse
	if ok, err := a.store.Response(key, teamsMaxAge, &cached); err == nil && ok {
		return cached.Items, nil
	}
	var res dto.TeamsResponse
	if err := a.do(ctx, http.MethodGet, "/teams?region="+region, nil, &res); err != nil {
		return nil, err
	}
	if err := a.store.PutResponse(key, res); err != nil {
		return nil, err
	}
	return res.Items, nil
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status int
	dto.ErrorResponse
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d %s: %s", e.Status, e.Code, e.Message)
}

func (a *API) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Subscriber-ID", a.subscriberID)

	res, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: res.StatusCode}
		_ = json.NewDecoder(res.Body).Decode(&apiErr.ErrorResponse)
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}
