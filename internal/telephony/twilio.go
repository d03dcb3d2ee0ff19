package telephony

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultTwilioTimeout = 10 * time.Second

// TwilioOptions configures the Twilio REST adapter.
type TwilioOptions struct {
	AccountSID string
	AuthToken  string

	// LookupBaseURL is the Lookups v2 PhoneNumbers root, e.g. https://lookups.twilio.com/v2/PhoneNumbers
	LookupBaseURL string
	// APIBaseURL is the versioned REST root, e.g. https://api.twilio.com/2010-04-01
	APIBaseURL string

	Timeout time.Duration
}

// TwilioProvider implements LookupProvider and VoiceProvider against the Twilio REST API.
// Requests are never retried.
type TwilioProvider struct {
	client *resty.Client
	opts   TwilioOptions
}

func NewTwilioProvider(opts TwilioOptions) (*TwilioProvider, error) {
	return NewTwilioProviderWithClient(opts, resty.New())
}

func NewTwilioProviderWithClient(opts TwilioOptions, client *resty.Client) (*TwilioProvider, error) {
	if client == nil {
		return nil, errors.New("telephony: resty client is required")
	}
	opts.LookupBaseURL = strings.TrimRight(strings.TrimSpace(opts.LookupBaseURL), "/")
	opts.APIBaseURL = strings.TrimRight(strings.TrimSpace(opts.APIBaseURL), "/")
	if opts.LookupBaseURL == "" || opts.APIBaseURL == "" {
		return nil, errors.New("telephony: twilio base urls are required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTwilioTimeout
	}

	client.SetTimeout(opts.Timeout)
	client.SetRetryCount(0)
	client.SetBasicAuth(opts.AccountSID, opts.AuthToken)

	return &TwilioProvider{client: client, opts: opts}, nil
}

func (p *TwilioProvider) Name() string { return "twilio" }

type twilioLookupResponse struct {
	Carrier *struct {
		Name string `json:"name"`
	} `json:"carrier"`
	LineTypeIntelligence *struct {
		Type        string `json:"type"`
		CarrierName string `json:"carrier_name"`
	} `json:"line_type_intelligence"`
}

func (p *TwilioProvider) Lookup(ctx context.Context, number string) (LookupResult, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("Fields", "line_type_intelligence").
		Get(p.opts.LookupBaseURL + "/" + url.PathEscape(number))
	if err != nil {
		return LookupResult{}, &ProviderError{Kind: ErrLookupUnavailable, Message: "lookup request failed", Cause: err}
	}

	body := resp.Body()
	switch code := resp.StatusCode(); {
	case code == http.StatusNotFound:
		return LookupResult{}, twilioError(ErrNumberNotFound, code, body)
	case code == http.StatusUnauthorized:
		return LookupResult{}, twilioError(ErrAuthenticationFailed, code, body)
	case code < 200 || code >= 300:
		return LookupResult{}, twilioError(ErrLookupUnavailable, code, body)
	}

	var decoded twilioLookupResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return LookupResult{}, &ProviderError{Kind: ErrLookupUnavailable, StatusCode: resp.StatusCode(), Message: "undecodable lookup response", Body: body, Cause: err}
	}

	out := LookupResult{CarrierName: Unknown, LineType: Unknown, RawPayload: json.RawMessage(body)}
	if decoded.Carrier != nil && decoded.Carrier.Name != "" {
		out.CarrierName = decoded.Carrier.Name
	}
	if lti := decoded.LineTypeIntelligence; lti != nil {
		if lti.Type != "" {
			out.LineType = lti.Type
		}
		if out.CarrierName == Unknown && lti.CarrierName != "" {
			out.CarrierName = lti.CarrierName
		}
	}
	return out, nil
}

type twilioCallResponse struct {
	SID         string `json:"sid"`
	Status      string `json:"status"`
	DateCreated string `json:"date_created"`
}

func (p *TwilioProvider) PlaceCall(ctx context.Context, req PlaceCallRequest) (Call, error) {
	form := url.Values{}
	form.Set("To", req.To)
	form.Set("From", req.From)
	form.Set("Twiml", req.TwiML)
	if req.RingTimeout > 0 {
		form.Set("Timeout", strconv.Itoa(int(req.RingTimeout/time.Second)))
	}
	if req.StatusCallbackURL != "" {
		form.Set("StatusCallback", req.StatusCallbackURL)
		form.Set("StatusCallbackMethod", http.MethodPost)
		for _, ev := range []string{"initiated", "ringing", "answered", "completed"} {
			form.Add("StatusCallbackEvent", ev)
		}
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetFormDataFromValues(form).
		Post(p.callsURL())
	return p.decodeCall(resp, err, ErrCallPlacementFailed)
}

func (p *TwilioProvider) FetchCall(ctx context.Context, callID string) (Call, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		Get(p.callURL(callID))
	return p.decodeCall(resp, err, ErrStatusPollFailed)
}

func (p *TwilioProvider) CompleteCall(ctx context.Context, callID string) (Call, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{"Status": string(CallStatusCompleted)}).
		Post(p.callURL(callID))
	return p.decodeCall(resp, err, ErrTerminationFailed)
}

func (p *TwilioProvider) callsURL() string {
	return fmt.Sprintf("%s/Accounts/%s/Calls.json", p.opts.APIBaseURL, url.PathEscape(p.opts.AccountSID))
}

func (p *TwilioProvider) callURL(callID string) string {
	return fmt.Sprintf("%s/Accounts/%s/Calls/%s.json", p.opts.APIBaseURL, url.PathEscape(p.opts.AccountSID), url.PathEscape(callID))
}

func (p *TwilioProvider) decodeCall(resp *resty.Response, err error, kind error) (Call, error) {
	if err != nil {
		return Call{}, &ProviderError{Kind: kind, Message: "provider request failed", Cause: err}
	}
	if !resp.IsSuccess() {
		return Call{}, twilioError(kind, resp.StatusCode(), resp.Body())
	}

	var decoded twilioCallResponse
	if err := json.Unmarshal(resp.Body(), &decoded); err != nil {
		return Call{}, &ProviderError{Kind: kind, StatusCode: resp.StatusCode(), Message: "undecodable call response", Body: resp.Body(), Cause: err}
	}
	if decoded.SID == "" {
		return Call{}, &ProviderError{Kind: kind, StatusCode: resp.StatusCode(), Message: "call response without sid", Body: resp.Body()}
	}

	c := Call{ID: decoded.SID, Status: CallStatus(decoded.Status)}
	if t, err := time.Parse(time.RFC1123Z, decoded.DateCreated); err == nil {
		c.CreatedAt = t.UTC()
	}
	return c, nil
}

type twilioErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func twilioError(kind error, statusCode int, body []byte) *ProviderError {
	pe := &ProviderError{Kind: kind, StatusCode: statusCode, Body: body}
	var decoded twilioErrorBody
	if err := json.Unmarshal(body, &decoded); err == nil {
		pe.Code = decoded.Code
		pe.Message = decoded.Message
	} else {
		pe.Message = strings.TrimSpace(string(body))
	}
	return pe
}
