package calls

import "phone-availability/internal/telephony"

// StatusVerdict maps the single polled call status to a verdict.
// Statuses other than busy, failed and no-answer are provisionally available.
func StatusVerdict(status telephony.CallStatus) Verdict {
	switch status {
	case telephony.CallStatusBusy:
		return Verdict{IsAvailable: false, CallPlaced: true, Message: MessageBusy}
	case telephony.CallStatusFailed, telephony.CallStatusNoAnswer:
		return Verdict{IsAvailable: false, CallPlaced: true, Message: MessageUnreachable}
	default:
		return Verdict{IsAvailable: true, CallPlaced: true, Message: MessageAvailable}
	}
}

// PlacementVerdict classifies a rejected call placement.
//
// A busy rejection means the destination was reached while occupied, so the
// call counts as placed. Unverified destinations are checked first: their
// provider text can also mention the line state.
func PlacementVerdict(err error) Verdict {
	switch {
	case telephony.IsUnverifiedDestination(err):
		return Verdict{IsAvailable: false, CallPlaced: false, Message: MessageUnverified}
	case telephony.IsBusySignal(err):
		return Verdict{IsAvailable: false, CallPlaced: true, Message: MessagePlacementBusy}
	default:
		return Verdict{IsAvailable: false, CallPlaced: false, Message: MessagePlacementError}
	}
}
