package telephony

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// StatusCallback is the subset of Twilio call-status webhook fields we log.
// Twilio sends application/x-www-form-urlencoded.
type StatusCallback struct {
	CallSid        string
	AccountSid     string
	From           string
	To             string
	Direction      string
	CallStatus     CallStatus
	CallDuration   int
	SequenceNumber string
	Timestamp      string
}

// InboundCall is the subset of fields of a call arriving at our origin number.
type InboundCall struct {
	CallSid string
	From    string
	To      string
}

func ParseStatusCallback(r *http.Request) (StatusCallback, error) {
	if err := r.ParseForm(); err != nil {
		return StatusCallback{}, err
	}
	dur, _ := strconv.Atoi(r.PostFormValue("CallDuration"))
	return StatusCallback{
		CallSid:        r.PostFormValue("CallSid"),
		AccountSid:     r.PostFormValue("AccountSid"),
		From:           strings.TrimSpace(r.PostFormValue("From")),
		To:             strings.TrimSpace(r.PostFormValue("To")),
		Direction:      r.PostFormValue("Direction"),
		CallStatus:     CallStatus(r.PostFormValue("CallStatus")),
		CallDuration:   dur,
		SequenceNumber: r.PostFormValue("SequenceNumber"),
		Timestamp:      r.PostFormValue("Timestamp"),
	}, nil
}

func ParseInboundCall(r *http.Request) (InboundCall, error) {
	if err := r.ParseForm(); err != nil {
		return InboundCall{}, err
	}
	return InboundCall{
		CallSid: r.PostFormValue("CallSid"),
		// Twilio sometimes sends "anonymous" or empty; keep as-is.
		From: strings.TrimSpace(r.PostFormValue("From")),
		To:   strings.TrimSpace(r.PostFormValue("To")),
	}, nil
}

// Signature computes the X-Twilio-Signature value for a form POST:
// base64(HMAC-SHA1(authToken, fullURL + sorted key/value concatenation)).
func Signature(authToken, fullURL string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(fullURL)
	for _, k := range keys {
		vals := append([]string(nil), params[k]...)
		sort.Strings(vals)
		for _, v := range vals {
			b.WriteString(k)
			b.WriteString(v)
		}
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// ValidSignature compares in constant time.
func ValidSignature(authToken, fullURL string, params url.Values, signature string) bool {
	if authToken == "" || signature == "" {
		return false
	}
	want := Signature(authToken, fullURL, params)
	return hmac.Equal([]byte(want), []byte(signature))
}
