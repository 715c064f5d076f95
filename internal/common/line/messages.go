// internal/common/line/messages.go
package line

import "github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

// MaxCarouselBubbles is the platform limit for one carousel.
const MaxCarouselBubbles = 12

// Message is a Messaging API send message. Only text and flex are produced by the bot.
type Message = messaging_api.MessageInterface

func NewTextMessage(text string) *messaging_api.TextMessage {
	return &messaging_api.TextMessage{Text: text}
}

func NewFlexMessage(altText string, contents messaging_api.FlexContainerInterface) *messaging_api.FlexMessage {
	return &messaging_api.FlexMessage{AltText: altText, Contents: contents}
}

// NewQuickReply wraps actions that send text back as the user.
func NewQuickReply(actions ...messaging_api.ActionInterface) *messaging_api.QuickReply {
	items := make([]messaging_api.QuickReplyItem, 0, len(actions))
	for _, a := range actions {
		items = append(items, messaging_api.QuickReplyItem{Action: a})
	}
	return &messaging_api.QuickReply{Items: items}
}
