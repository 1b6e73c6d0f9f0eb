package api

import (
	"github.com/starford/perchsync/internal/keyboard"
	"github.com/starford/perchsync/internal/perch"
)

// SignalRequest is the request body for POST /clients/{clientID}/signals.
type SignalRequest = perch.SignalRequest

// SignalResponse is returned by POST /clients/{clientID}/signals.
type SignalResponse = perch.SignalResponse

// PremiumRequest is the request body for POST /clients/{clientID}/premium.
type PremiumRequest = perch.PremiumRequest

// PremiumResponse is returned by POST /clients/{clientID}/premium.
type PremiumResponse = perch.PremiumResponse

// ResetResponse is returned by POST /clients/{clientID}/reset.
type ResetResponse = perch.ResetResponse

// TodayResponse is returned by GET /today.
type TodayResponse = perch.Today

// KeyboardListResponse wraps the keyboard set rotation.
type KeyboardListResponse struct {
	Sets  []keyboard.Set `json:"sets" validate:"required"`
	Total int            `json:"total" example:"7" validate:"required"`
}
