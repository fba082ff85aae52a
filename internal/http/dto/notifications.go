package dto

import "matchpulse/internal/model"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type StatusResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type HistoryResponse struct {
	SubscriberID string                    `json:"subscriber_id"`
	Items        []model.NotificationEvent `json:"items"`
}

type TeamsResponse struct {
	Region string       `json:"region"`
	Items  []model.Team `json:"items"`
}

type NewsResponse struct {
	Items []model.Article `json:"items"`
}
