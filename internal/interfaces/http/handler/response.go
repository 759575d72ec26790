package handler

import "github.com/safarhub/backend/internal/interfaces/http/dto"

// APIResponse is dto.Response with a typed data field, for clients and
// tests that decode responses
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	Meta    *dto.Meta      `json:"meta,omitempty"`
}
