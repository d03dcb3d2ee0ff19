package telephony

import (
	"context"
	"encoding/json"
	"time"
)

// LookupProvider returns carrier and line-type metadata for a dialable number.
type LookupProvider interface {
	Lookup(ctx context.Context, number string) (LookupResult, error)
}

// VoiceProvider places and controls outbound calls.
//
// Rules:
// - No provider SDK calls outside telephony adapters.
// - Request/response types stay provider-agnostic; raw payloads are kept only for diagnostics.
type VoiceProvider interface {
	PlaceCall(ctx context.Context, req PlaceCallRequest) (Call, error)
	FetchCall(ctx context.Context, callID string) (Call, error)
	// CompleteCall forces a live call to end.
	CompleteCall(ctx context.Context, callID string) (Call, error)
}

// Unknown is the value reported for metadata fields the provider left out.
const Unknown = "Unknown"

type LookupResult struct {
	CarrierName string `json:"carrier_name"`
	LineType    string `json:"line_type"`

	// RawPayload is the provider response body, verbatim.
	RawPayload json.RawMessage `json:"raw_payload,omitempty"`
}

type PlaceCallRequest struct {
	// To and From are E.164.
	To   string `json:"to"`
	From string `json:"from"`

	// TwiML is the call script executed when the far end answers.
	TwiML string `json:"twiml"`

	RingTimeout time.Duration `json:"ring_timeout"`

	// StatusCallbackURL is optional.
	StatusCallbackURL string `json:"status_callback_url,omitempty"`
}

// Call is the provider's view of one outbound call.
type Call struct {
	ID        string     `json:"id"`
	Status    CallStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

// CallStatus uses the provider's wire values.
type CallStatus string

const (
	CallStatusQueued     CallStatus = "queued"
	CallStatusRinging    CallStatus = "ringing"
	CallStatusInProgress CallStatus = "in-progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusBusy       CallStatus = "busy"
	CallStatusFailed     CallStatus = "failed"
	CallStatusNoAnswer   CallStatus = "no-answer"
	CallStatusCanceled   CallStatus = "canceled"
)

// IsLive reports whether the call may still ring or be connected.
func (s CallStatus) IsLive() bool {
	switch s {
	case CallStatusQueued, CallStatusRinging, CallStatusInProgress:
		return true
	default:
		return false
	}
}

func (s CallStatus) IsTerminal() bool {
	switch s {
	case CallStatusCompleted, CallStatusBusy, CallStatusFailed, CallStatusNoAnswer, CallStatusCanceled:
		return true
	default:
		return false
	}
}
