package calls

import "phone-availability/internal/telephony"

// Verdict is the availability judgment derived from one verification call.
// Immutable once produced.
type Verdict struct {
	IsAvailable bool   `json:"isAvailable"`
	CallPlaced  bool   `json:"callMade"`
	Message     string `json:"message"`
}

// State names a step of the verification protocol.
type State string

const (
	StateIdle              State = "idle"
	StateCallRequested     State = "call_requested"
	StateWaiting           State = "waiting"
	StateStatusPolled      State = "status_polled"
	StateForceTerminating  State = "force_terminating"
	StateTerminated        State = "terminated"
	StateTerminationFailed State = "termination_failed"
	StateAlreadyTerminal   State = "already_terminal"
	StateVerdictReady      State = "verdict_ready"
)

// Outcome is what Verify returns: the verdict plus the call's diagnostics.
//
// Status is empty when the call was never placed or the poll failed.
type Outcome struct {
	Verdict Verdict

	CallID     string
	Status     telephony.CallStatus
	Terminated bool

	// Steps lists the states visited, in order.
	Steps []State
}

func (o *Outcome) enter(s State) {
	o.Steps = append(o.Steps, s)
}

// User-facing verdict messages.
const (
	MessageAvailable      = "This number is available to contact!"
	MessageBusy           = "This number is currently busy on another call."
	MessageUnreachable    = "The call could not complete; the number may be off, disconnected, or rejecting calls."
	MessagePlacementBusy  = "This number is currently busy."
	MessageUnverified     = "The verification call was refused because the number is unverified for this account; this does not mean the line is busy."
	MessagePlacementError = "The verification call could not be placed."
)
