package calls

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phone-availability/internal/telephony"
)

type fakeVoice struct {
	mu sync.Mutex

	placeErr  error
	status    telephony.CallStatus
	fetchErr  error
	finishErr error

	placed    []telephony.PlaceCallRequest
	polls     int
	completes int

	// afterPlace runs once the call is placed, e.g. to cancel the request.
	afterPlace func()
	fetchCtx   context.Context
}

func (f *fakeVoice) PlaceCall(ctx context.Context, req telephony.PlaceCallRequest) (telephony.Call, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.placed = append(f.placed, req)
	if f.placeErr != nil {
		return telephony.Call{}, f.placeErr
	}
	if f.afterPlace != nil {
		defer f.afterPlace()
	}
	return telephony.Call{ID: "CA100", Status: telephony.CallStatusQueued}, nil
}

func (f *fakeVoice) FetchCall(ctx context.Context, callID string) (telephony.Call, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	f.fetchCtx = ctx
	if f.fetchErr != nil {
		return telephony.Call{}, f.fetchErr
	}
	return telephony.Call{ID: callID, Status: f.status}, nil
}

func (f *fakeVoice) CompleteCall(ctx context.Context, callID string) (telephony.Call, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completes++
	if f.finishErr != nil {
		return telephony.Call{}, f.finishErr
	}
	return telephony.Call{ID: callID, Status: telephony.CallStatusCompleted}, nil
}

type recordingObserver struct {
	errors   []string
	statuses []string
}

func (r *recordingObserver) IncProviderError(op string)                        { r.errors = append(r.errors, op) }
func (r *recordingObserver) IncCallStatus(source, status string)               { r.statuses = append(r.statuses, source+":"+status) }
func (r *recordingObserver) ObserveProviderLatency(op string, d time.Duration) {}

func newOrchestrator(v *fakeVoice) (*Orchestrator, *[]time.Duration) {
	var slept []time.Duration
	return &Orchestrator{
		Voice:       v,
		From:        "+15550000000",
		PollDelay:   3 * time.Second,
		RingTimeout: 10 * time.Second,
		Sleep:       func(_ context.Context, d time.Duration) { slept = append(slept, d) },
	}, &slept
}

func TestVerify_LiveCallIsTerminatedOnce(t *testing.T) {
	for _, status := range []telephony.CallStatus{telephony.CallStatusQueued, telephony.CallStatusRinging, telephony.CallStatusInProgress} {
		t.Run(string(status), func(t *testing.T) {
			v := &fakeVoice{status: status}
			o, slept := newOrchestrator(v)

			out := o.Verify(context.Background(), "+15551234567")

			assert.Equal(t, 1, v.polls, "exactly one poll")
			assert.Equal(t, 1, v.completes, "exactly one termination")
			assert.Equal(t, []time.Duration{3 * time.Second}, *slept)
			assert.True(t, out.Terminated)
			assert.Equal(t, Verdict{IsAvailable: true, CallPlaced: true, Message: MessageAvailable}, out.Verdict)
			assert.Equal(t, []State{
				StateIdle, StateCallRequested, StateWaiting, StateStatusPolled,
				StateForceTerminating, StateTerminated, StateVerdictReady,
			}, out.Steps)
		})
	}
}

func TestVerify_TerminalStatusSkipsTermination(t *testing.T) {
	cases := []struct {
		status    telephony.CallStatus
		available bool
		message   string
	}{
		{status: telephony.CallStatusCompleted, available: true, message: MessageAvailable},
		{status: telephony.CallStatusCanceled, available: true, message: MessageAvailable},
		{status: telephony.CallStatusBusy, available: false, message: MessageBusy},
		{status: telephony.CallStatusFailed, available: false, message: MessageUnreachable},
		{status: telephony.CallStatusNoAnswer, available: false, message: MessageUnreachable},
	}
	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			v := &fakeVoice{status: tc.status}
			o, _ := newOrchestrator(v)

			out := o.Verify(context.Background(), "+15551234567")

			assert.Equal(t, 1, v.polls)
			assert.Equal(t, 0, v.completes)
			assert.False(t, out.Terminated)
			assert.Equal(t, tc.status, out.Status)
			assert.Equal(t, "CA100", out.CallID)
			assert.Equal(t, Verdict{IsAvailable: tc.available, CallPlaced: true, Message: tc.message}, out.Verdict)
			assert.Contains(t, out.Steps, StateAlreadyTerminal)
			assert.NotContains(t, out.Steps, StateForceTerminating)
		})
	}
}

func TestVerify_PlacementRequest(t *testing.T) {
	v := &fakeVoice{status: telephony.CallStatusCompleted}
	o, _ := newOrchestrator(v)
	o.StatusCallbackURL = "https://checker.example.test/webhooks/twilio/call-status"

	o.Verify(context.Background(), "+15551234567")

	require.Len(t, v.placed, 1)
	req := v.placed[0]
	assert.Equal(t, "+15551234567", req.To)
	assert.Equal(t, "+15550000000", req.From)
	assert.Equal(t, 10*time.Second, req.RingTimeout)
	assert.Contains(t, req.TwiML, "<Hangup>")
	assert.Equal(t, o.StatusCallbackURL, req.StatusCallbackURL)
}

func TestVerify_PlacementFailures(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		placed  bool
		message string
	}{
		{
			name:    "busy upper case",
			err:     &telephony.ProviderError{Kind: telephony.ErrCallPlacementFailed, StatusCode: 400, Message: "DESTINATION BUSY"},
			placed:  true,
			message: MessagePlacementBusy,
		},
		{
			name:    "in use",
			err:     errors.New("line in use"),
			placed:  true,
			message: MessagePlacementBusy,
		},
		{
			name:    "unverified code",
			err:     &telephony.ProviderError{Kind: telephony.ErrCallPlacementFailed, StatusCode: 400, Code: 21219, Message: "trial account restriction"},
			placed:  false,
			message: MessageUnverified,
		},
		{
			name:    "unverified wins over busy",
			err:     errors.New("number is unverified, cannot tell if busy"),
			placed:  false,
			message: MessageUnverified,
		},
		{
			name:    "generic",
			err:     &telephony.ProviderError{Kind: telephony.ErrCallPlacementFailed, StatusCode: 500, Message: "internal"},
			placed:  false,
			message: MessagePlacementError,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := &fakeVoice{placeErr: tc.err}
			obs := &recordingObserver{}
			o, slept := newOrchestrator(v)
			o.Observer = obs

			out := o.Verify(context.Background(), "+15551234567")

			assert.Equal(t, Verdict{IsAvailable: false, CallPlaced: tc.placed, Message: tc.message}, out.Verdict)
			assert.Equal(t, 0, v.polls)
			assert.Equal(t, 0, v.completes)
			assert.Empty(t, *slept)
			assert.Empty(t, out.CallID)
			assert.Equal(t, []State{StateIdle, StateCallRequested, StateVerdictReady}, out.Steps)
			assert.Equal(t, []string{"place_call"}, obs.errors)
		})
	}
}

func TestVerify_MissingOriginMakesNoProviderCall(t *testing.T) {
	v := &fakeVoice{status: telephony.CallStatusCompleted}
	o, _ := newOrchestrator(v)
	o.From = ""

	out := o.Verify(context.Background(), "+15551234567")

	assert.Empty(t, v.placed)
	assert.Equal(t, Verdict{IsAvailable: false, CallPlaced: false, Message: MessagePlacementError}, out.Verdict)
}

func TestVerify_PollFailureDefaultsAvailableAndStillTerminates(t *testing.T) {
	v := &fakeVoice{fetchErr: &telephony.ProviderError{Kind: telephony.ErrStatusPollFailed, StatusCode: 503}}
	obs := &recordingObserver{}
	o, _ := newOrchestrator(v)
	o.Observer = obs

	out := o.Verify(context.Background(), "+15551234567")

	assert.Equal(t, Verdict{IsAvailable: true, CallPlaced: true, Message: MessageAvailable}, out.Verdict)
	assert.Empty(t, out.Status)
	assert.Equal(t, 1, v.polls)
	assert.Equal(t, 1, v.completes)
	assert.Equal(t, []string{"fetch_call"}, obs.errors)
}

func TestVerify_TerminationFailureKeepsVerdict(t *testing.T) {
	v := &fakeVoice{status: telephony.CallStatusRinging, finishErr: errors.New("unreachable")}
	obs := &recordingObserver{}
	o, _ := newOrchestrator(v)
	o.Observer = obs

	out := o.Verify(context.Background(), "+15551234567")

	assert.False(t, out.Terminated)
	assert.Equal(t, 1, v.completes)
	assert.True(t, out.Verdict.IsAvailable)
	assert.Equal(t, []string{"complete_call"}, obs.errors)
	assert.Equal(t, []string{"poll:ringing"}, obs.statuses)
	assert.Equal(t, []State{
		StateIdle, StateCallRequested, StateWaiting, StateStatusPolled,
		StateForceTerminating, StateTerminationFailed, StateVerdictReady,
	}, out.Steps)
	assert.NotContains(t, out.Steps, StateTerminated)
}

func TestVerify_RequestCancellationAfterPlacementIsIgnored(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	v := &fakeVoice{status: telephony.CallStatusRinging, afterPlace: cancel}
	o, _ := newOrchestrator(v)

	out := o.Verify(ctx, "+15551234567")

	require.Error(t, ctx.Err())
	require.NotNil(t, v.fetchCtx)
	assert.NoError(t, v.fetchCtx.Err())
	assert.Equal(t, 1, v.completes)
	assert.True(t, out.Terminated)
}

func TestStatusVerdict_BusyIgnoresEverythingElse(t *testing.T) {
	got := StatusVerdict(telephony.CallStatusBusy)
	assert.False(t, got.IsAvailable)
	assert.True(t, got.CallPlaced)
	assert.Equal(t, MessageBusy, got.Message)
}
