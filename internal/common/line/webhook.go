// internal/common/line/webhook.go
package line

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	apperrors "line-parking-bot/internal/common/errors"
)

// SignatureHeader carries base64(HMAC-SHA256(channelSecret, body)).
const SignatureHeader = "X-Line-Signature"

// Verifier authenticates webhook bodies with the channel secret.
type Verifier struct {
	secret string
}

func NewVerifier(channelSecret string) *Verifier {
	return &Verifier{secret: channelSecret}
}

// Verify returns an INVALID_SIGNATURE error unless signature matches body.
func (v *Verifier) Verify(body []byte, signature string) error {
	if signature == "" {
		return apperrors.NewInvalidSignatureError("missing " + SignatureHeader)
	}
	if !webhook.ValidateSignature(v.secret, signature, body) {
		return apperrors.NewInvalidSignatureError("signature mismatch")
	}
	return nil
}

type EventKind string

const (
	KindText     EventKind = "text"
	KindLocation EventKind = "location"
)

type Location struct {
	Latitude  float64
	Longitude float64
	Title     string
	Address   string
}

// InboundEvent is a user message the bot knows how to answer.
type InboundEvent struct {
	Kind           EventKind
	UserID         string
	Timestamp      time.Time
	ReplyToken     string
	WebhookEventID string
	Redelivery     bool
	Text           string
	Location       Location
}

// ParseCallback decodes a verified webhook body.
func ParseCallback(body []byte) (*webhook.CallbackRequest, error) {
	var req webhook.CallbackRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, apperrors.NewInvalidWebhookPayloadError(fmt.Errorf("decode callback: %w", err))
	}
	return &req, nil
}

// Inbound converts a text or location message event from a user. ok is false for anything else.
func Inbound(e webhook.EventInterface) (InboundEvent, bool) {
	msg, ok := e.(webhook.MessageEvent)
	if !ok {
		return InboundEvent{}, false
	}

	userID := sourceUserID(msg.Source)
	if userID == "" || msg.Message == nil {
		return InboundEvent{}, false
	}

	in := InboundEvent{
		UserID:         userID,
		Timestamp:      time.UnixMilli(msg.Timestamp),
		ReplyToken:     msg.ReplyToken,
		WebhookEventID: msg.WebhookEventId,
		Redelivery:     msg.DeliveryContext != nil && msg.DeliveryContext.IsRedelivery,
	}

	switch m := msg.Message.(type) {
	case webhook.TextMessageContent:
		in.Kind, in.Text = KindText, m.Text
	case webhook.LocationMessageContent:
		in.Kind = KindLocation
		in.Location = Location{
			Latitude:  m.Latitude,
			Longitude: m.Longitude,
			Title:     m.Title,
			Address:   m.Address,
		}
	default:
		return InboundEvent{}, false
	}
	return in, true
}

// EventType names an event for logging.
func EventType(e webhook.EventInterface) string {
	if e == nil {
		return "unknown"
	}
	return e.GetType()
}

func sourceUserID(s webhook.SourceInterface) string {
	switch src := s.(type) {
	case webhook.UserSource:
		return src.UserId
	case webhook.GroupSource:
		return src.UserId
	case webhook.RoomSource:
		return src.UserId
	}
	return ""
}
