package checks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"phone-availability/internal/calls"
	"phone-availability/internal/phone"
	"phone-availability/internal/telephony"
	"phone-availability/pkg/logger"
)

var (
	ErrCredentialsMissing = errors.New("checks: provider credentials are not configured")
	ErrValidation         = errors.New("checks: invalid request")
)

// Verifier runs the verification call for a dialable number.
type Verifier interface {
	Verify(ctx context.Context, to string) calls.Outcome
}

// Observer counts check outcomes. Optional.
type Observer interface {
	IncCheck(outcome string)
}

// Check outcomes reported to the Observer.
const (
	OutcomeAvailable          = "available"
	OutcomeUnavailable        = "unavailable"
	OutcomeInvalid            = "invalid"
	OutcomeCredentialsMissing = "credentials_missing"
	OutcomeNotFound           = "not_found"
	OutcomeLookupFailed       = "lookup_failed"
	OutcomeStoreFailed        = "store_failed"
)

type Options struct {
	Lookup   telephony.LookupProvider
	Verifier Verifier
	Recorder *Recorder

	// CredentialsConfigured is false when the provider account is not set up;
	// every check then fails before any external call.
	CredentialsConfigured bool

	Observer Observer
}

// Service runs the check pipeline:
//
//	validate -> normalize -> lookup -> verification call -> record
//
// One record is appended per validated request, including failed lookups.
type Service struct {
	opts Options
}

func NewService(opts Options) *Service {
	return &Service{opts: opts}
}

// Check runs one availability check.
//
// On a lookup failure the best-effort record is returned together with the
// lookup error; no call is placed.
func (s *Service) Check(ctx context.Context, req CheckRequest) (Result, error) {
	log := logger.From(ctx)

	if err := validate(req); err != nil {
		s.count(OutcomeInvalid)
		return Result{}, err
	}
	if !s.opts.CredentialsConfigured || s.opts.Lookup == nil || s.opts.Verifier == nil {
		s.count(OutcomeCredentialsMissing)
		return Result{}, ErrCredentialsMissing
	}

	dialable := phone.Normalize(req.CountryCode, req.PhoneNumber)
	log = log.With("number", dialable)
	if full := strings.TrimSpace(req.FullNumber); phone.Digits(full) != phone.Digits(dialable) {
		log.Debug("submitted full number differs from normalized parts", "full_number", full)
	}
	if !phone.MeetsMinimumLength(req.CountryCode, req.PhoneNumber) {
		log.Warn("phone number shorter than expected for country",
			"country_code", req.CountryCode,
			"minimum", phone.MinimumLength(req.CountryCode),
		)
	}
	if info := phone.Inspect(dialable); !info.Valid {
		log.Info("number not recognized by numbering plan", "region", info.Region)
	}

	lookup, err := s.opts.Lookup.Lookup(ctx, dialable)
	if err != nil {
		return s.recordLookupFailure(ctx, req, dialable, err)
	}
	log.Debug("lookup complete", "carrier", lookup.CarrierName, "line_type", lookup.LineType)

	outcome := s.opts.Verifier.Verify(ctx, dialable)

	rec, err := s.opts.Recorder.Record(ctx, req, dialable, lookup, outcome.Verdict)
	if err != nil {
		s.count(OutcomeStoreFailed)
		return Result{Outcome: outcome}, fmt.Errorf("checks: record: %w", err)
	}

	if outcome.Verdict.IsAvailable {
		s.count(OutcomeAvailable)
	} else {
		s.count(OutcomeUnavailable)
	}
	log.Info("phone check complete",
		"check_id", rec.ID,
		"available", outcome.Verdict.IsAvailable,
		"call_placed", outcome.Verdict.CallPlaced,
		"call_id", outcome.CallID,
		"call_status", string(outcome.Status),
	)
	return Result{Record: rec, Outcome: outcome}, nil
}

func (s *Service) recordLookupFailure(ctx context.Context, req CheckRequest, dialable string, lookupErr error) (Result, error) {
	log := logger.From(ctx).With("number", dialable)

	if errors.Is(lookupErr, telephony.ErrNumberNotFound) {
		s.count(OutcomeNotFound)
	} else {
		s.count(OutcomeLookupFailed)
	}
	log.Warn("lookup failed", "err", lookupErr)

	failed := telephony.LookupResult{CarrierName: telephony.Unknown, LineType: telephony.Unknown}
	var pe *telephony.ProviderError
	if errors.As(lookupErr, &pe) {
		failed.RawPayload = pe.Body
	}

	rec, err := s.opts.Recorder.Record(ctx, req, dialable, failed, calls.Verdict{})
	if err != nil {
		log.Error("failed to record lookup failure", "err", err)
		return Result{}, errors.Join(fmt.Errorf("checks: lookup: %w", lookupErr), fmt.Errorf("checks: record: %w", err))
	}
	return Result{Record: rec}, fmt.Errorf("checks: lookup: %w", lookupErr)
}

func (s *Service) count(outcome string) {
	if s.opts.Observer != nil {
		s.opts.Observer.IncCheck(outcome)
	}
}

func validate(req CheckRequest) error {
	var problems []string
	if strings.TrimSpace(req.CountryCode) == "" {
		problems = append(problems, "countryCode is required")
	}
	if len(strings.TrimSpace(req.CountryISO2)) < 2 {
		problems = append(problems, "countryIso2 must be at least 2 characters")
	}
	if phone.Digits(req.PhoneNumber) == "" {
		problems = append(problems, "phoneNumber must contain digits")
	}
	if len(strings.TrimSpace(req.FullNumber)) < 5 {
		problems = append(problems, "fullNumber must be at least 5 characters")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}
