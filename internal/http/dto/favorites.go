package dto

import "matchpulse/internal/model"

type FollowRequest struct {
	SubscriberID string `json:"subscriberId"`
	TeamID       string `json:"teamId"`
	TeamName     string `json:"teamName"`
}

type UnfollowRequest struct {
	SubscriberID string `json:"subscriberId"`
	TeamName     string `json:"teamName"`
}

// SettingsRequest replaces the preferences of one favorite. Settings must be
// present; a missing object is not read as "all off".
type SettingsRequest struct {
	SubscriberID string                         `json:"subscriberId"`
	TeamID       string                         `json:"teamId"`
	TeamName     string                         `json:"teamName"`
	Settings     *model.NotificationPreferences `json:"settings"`
}

type FavoritesResponse struct {
	SubscriberID string           `json:"subscriber_id"`
	Items        []model.Favorite `json:"items"`
}
