// internal/workers/rating/rating-setup/handler_test.go
package ratingsetup

import (
	"context"
	"errors"
	"testing"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "line-parking-bot/internal/common/errors"
	"line-parking-bot/internal/common/line"
	"line-parking-bot/internal/common/logger"
	"line-parking-bot/internal/common/rating"
)

type fakeReplier struct {
	token    string
	messages []line.Message
	err      error
}

func (f *fakeReplier) Reply(ctx context.Context, replyToken string, messages ...line.Message) error {
	f.token = replyToken
	f.messages = append(f.messages, messages...)
	return f.err
}

func (f *fakeReplier) text(i int) *messaging_api.TextMessage {
	return f.messages[i].(*messaging_api.TextMessage)
}

func TestHandler_ScorePicker(t *testing.T) {
	r := &fakeReplier{}
	h := NewHandler(LoadConfig(), r, logger.NewTestLogger(t))

	err := h.Handle(context.Background(), Input{ReplyToken: "rt", UserID: "U1", Text: "評分準備|市府公廁|市府路1號"})
	require.NoError(t, err)

	assert.Equal(t, "rt", r.token)
	require.Len(t, r.messages, 1)
	msg := r.text(0)
	assert.Equal(t, "你選擇評分的廁所是：「市府公廁」，請給分（💩越多越讚）：", msg.Text)
	require.NotNil(t, msg.QuickReply)
	require.Len(t, msg.QuickReply.Items, 5)

	for i, item := range msg.QuickReply.Items {
		n := i + 1
		assert.Equal(t, "action", item.Type)
		action, ok := item.Action.(*messaging_api.MessageAction)
		require.True(t, ok)
		assert.Equal(t, rating.Glyphs(n), action.Label)
		parsed, err := rating.ParseSubmit(action.Text)
		require.NoError(t, err)
		assert.Equal(t, "市府公廁", parsed.Place)
		assert.Equal(t, float64(n), parsed.Score)
	}
	assert.Equal(t, "評分 市府公廁 💩💩💩", msg.QuickReply.Items[2].Action.(*messaging_api.MessageAction).Text)
}

func TestHandler_MissingAddress(t *testing.T) {
	r := &fakeReplier{}
	h := NewHandler(LoadConfig(), r, logger.NewTestLogger(t))

	output, err := h.execute(context.Background(), &Input{ReplyToken: "rt", Text: "評分準備|車站公廁"})
	require.NoError(t, err)
	assert.Equal(t, "車站公廁", output.Place)
	assert.Empty(t, output.Address)
}

func TestHandler_InvalidCommand(t *testing.T) {
	r := &fakeReplier{}
	h := NewHandler(LoadConfig(), r, logger.NewTestLogger(t))

	err := h.Handle(context.Background(), Input{ReplyToken: "rt", Text: "評分準備|"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidRatingCommand))
	require.Len(t, r.messages, 1)
	assert.Equal(t, rating.ErrorReply, r.text(0).Text)
}

func TestHandler_ReplyFails(t *testing.T) {
	replyErr := errors.New("reply token expired")
	h := NewHandler(LoadConfig(), &fakeReplier{err: replyErr}, logger.NewTestLogger(t))

	err := h.Handle(context.Background(), Input{ReplyToken: "rt", Text: "評分準備|市府公廁|x"})
	assert.ErrorIs(t, err, replyErr)
}
