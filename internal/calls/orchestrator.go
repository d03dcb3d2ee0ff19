package calls

import (
	"context"
	"errors"
	"time"

	"phone-availability/internal/telephony"
	"phone-availability/pkg/logger"
)

// Observer receives provider-level events for metrics. Optional.
type Observer interface {
	IncProviderError(op string)
	IncCallStatus(source, status string)
	ObserveProviderLatency(op string, d time.Duration)
}

// Orchestrator runs the verification call protocol:
//
//	place call -> wait PollDelay -> poll status once -> terminate if not terminal -> verdict
//
// Rules:
//   - No retries and no second poll.
//   - Once a call is placed, request cancellation no longer applies; the call is
//     always polled and, if needed, terminated.
//   - Poll and termination errors are logged, never returned.
type Orchestrator struct {
	Voice telephony.VoiceProvider

	// From is the E.164 origin number.
	From string

	PollDelay         time.Duration
	RingTimeout       time.Duration
	StatusCallbackURL string

	Observer Observer

	// Sleep waits between placement and the poll. Defaults to time.Sleep.
	Sleep func(ctx context.Context, d time.Duration)
}

var errNoOrigin = errors.New("calls: origin number not configured")

// Verify places one verification call to the dialable number and returns its outcome.
func (o *Orchestrator) Verify(ctx context.Context, to string) Outcome {
	log := logger.From(ctx).With("to", to)

	var out Outcome
	out.enter(StateIdle)
	out.enter(StateCallRequested)

	call, err := o.place(ctx, to)
	if err != nil {
		out.Verdict = PlacementVerdict(err)
		log.Warn("verification call placement failed",
			"err", err,
			"call_placed", out.Verdict.CallPlaced,
		)
		out.enter(StateVerdictReady)
		return out
	}
	out.CallID = call.ID
	log = log.With("call_id", call.ID)
	log.Debug("verification call placed", "status", string(call.Status))

	ctx = context.WithoutCancel(ctx)

	out.enter(StateWaiting)
	o.sleep(ctx, o.PollDelay)

	// Unknown until the poll succeeds; an unread call is assumed available.
	out.Verdict = Verdict{IsAvailable: true, CallPlaced: true, Message: MessageAvailable}

	start := time.Now()
	polled, err := o.Voice.FetchCall(ctx, call.ID)
	o.observer().ObserveProviderLatency("fetch_call", time.Since(start))
	out.enter(StateStatusPolled)
	if err != nil {
		o.observer().IncProviderError("fetch_call")
		log.Warn("verification call status poll failed", "err", err)
	} else {
		out.Status = polled.Status
		out.Verdict = StatusVerdict(polled.Status)
		o.observer().IncCallStatus("poll", string(polled.Status))
		log.Info("verification call status polled", "status", string(polled.Status))
	}

	if out.Status.IsTerminal() {
		out.enter(StateAlreadyTerminal)
	} else {
		out.enter(StateForceTerminating)
		start = time.Now()
		_, err := o.Voice.CompleteCall(ctx, call.ID)
		o.observer().ObserveProviderLatency("complete_call", time.Since(start))
		if err != nil {
			o.observer().IncProviderError("complete_call")
			log.Warn("verification call termination failed", "err", err)
			out.enter(StateTerminationFailed)
		} else {
			out.Terminated = true
			out.enter(StateTerminated)
		}
	}

	out.enter(StateVerdictReady)
	return out
}

func (o *Orchestrator) place(ctx context.Context, to string) (telephony.Call, error) {
	if o.From == "" {
		return telephony.Call{}, errNoOrigin
	}
	twiml, err := telephony.HangupTwiML()
	if err != nil {
		return telephony.Call{}, err
	}

	start := time.Now()
	call, err := o.Voice.PlaceCall(ctx, telephony.PlaceCallRequest{
		To:                to,
		From:              o.From,
		TwiML:             twiml,
		RingTimeout:       o.RingTimeout,
		StatusCallbackURL: o.StatusCallbackURL,
	})
	o.observer().ObserveProviderLatency("place_call", time.Since(start))
	if err != nil {
		o.observer().IncProviderError("place_call")
		return telephony.Call{}, err
	}
	return call, nil
}

func (o *Orchestrator) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	if o.Sleep != nil {
		o.Sleep(ctx, d)
		return
	}
	time.Sleep(d)
}

func (o *Orchestrator) observer() Observer {
	if o.Observer == nil {
		return nopObserver{}
	}
	return o.Observer
}

type nopObserver struct{}

func (nopObserver) IncProviderError(string)                      {}
func (nopObserver) IncCallStatus(string, string)                 {}
func (nopObserver) ObserveProviderLatency(string, time.Duration) {}
