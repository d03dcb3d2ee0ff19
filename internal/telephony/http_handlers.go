package telephony

import (
	"context"
	"net/http"

	"phone-availability/pkg/logger"

	"github.com/gin-gonic/gin"
)

const headerTwilioSignature = "X-Twilio-Signature"

// TwilioWebhookHandler receives provider callbacks about verification calls.
//
// Callbacks are diagnostic only: verdicts come from the orchestrator's single
// status poll, never from these events.
type TwilioWebhookHandler struct {
	AuthToken string

	// Public URLs Twilio signs requests against.
	StatusCallbackURL string
	InboundVoiceURL   string

	// OnStatus is called for every accepted status callback. Optional.
	OnStatus func(ctx context.Context, cb StatusCallback)
}

func (h TwilioWebhookHandler) HandleStatusCallback(c *gin.Context) {
	log := logger.FromGin(c)

	if !h.verify(c, h.StatusCallbackURL) {
		log.Warn("twilio status callback rejected: bad signature")
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "invalid signature"})
		return
	}

	cb, err := ParseStatusCallback(c.Request)
	if err != nil {
		log.Warn("twilio status callback parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid form"})
		return
	}

	log.Info("verification call status",
		"call_id", cb.CallSid,
		"status", string(cb.CallStatus),
		"duration_s", cb.CallDuration,
		"sequence", cb.SequenceNumber,
	)
	if h.OnStatus != nil {
		h.OnStatus(c.Request.Context(), cb)
	}
	c.Status(http.StatusNoContent)
}

// HandleInboundCall rejects calls placed back to the verification origin number.
func (h TwilioWebhookHandler) HandleInboundCall(c *gin.Context) {
	log := logger.FromGin(c)

	if !h.verify(c, h.InboundVoiceURL) {
		log.Warn("twilio voice webhook rejected: bad signature")
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "invalid signature"})
		return
	}

	in, err := ParseInboundCall(c.Request)
	if err != nil {
		log.Warn("twilio voice webhook parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid form"})
		return
	}
	log.Info("inbound call to origin number rejected", "call_id", in.CallSid, "from", in.From)

	twiml, err := RejectTwiML()
	if err != nil {
		log.Error("twiml render failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "twiml failed"})
		return
	}
	c.Header("Content-Type", "application/xml")
	c.String(http.StatusOK, twiml)
}

func (h TwilioWebhookHandler) verify(c *gin.Context, fullURL string) bool {
	if err := c.Request.ParseForm(); err != nil {
		return false
	}
	return ValidSignature(h.AuthToken, fullURL, c.Request.PostForm, c.GetHeader(headerTwilioSignature))
}
