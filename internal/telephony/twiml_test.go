package telephony

import (
	"strings"
	"testing"
)

func TestHangupTwiML(t *testing.T) {
	doc, err := HangupTwiML()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(doc, "<Response><Hangup></Hangup></Response>") {
		t.Fatalf("unexpected twiml: %s", doc)
	}
}

func TestRejectTwiML(t *testing.T) {
	doc, err := RejectTwiML()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(doc, `<Reject reason="busy">`) {
		t.Fatalf("unexpected twiml: %s", doc)
	}
}
