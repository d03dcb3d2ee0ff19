package telephony

import (
	"bytes"
	"encoding/xml"
)

// Minimal TwiML builder; only the verbs the verification call needs.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

type twimlReject struct {
	XMLName xml.Name `xml:"Reject"`
	Reason  string   `xml:"reason,attr,omitempty"`
}

// HangupTwiML is the verification call script: the far end is hung up on as
// soon as it answers, so the callee never hears live audio.
func HangupTwiML() (string, error) {
	return renderTwiML(twimlHangup{})
}

// RejectTwiML answers an unexpected inbound callback with a busy rejection.
func RejectTwiML() (string, error) {
	return renderTwiML(twimlReject{Reason: "busy"})
}

func renderTwiML(verbs ...any) (string, error) {
	r := twimlResponse{Verbs: verbs}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
