// internal/workers/rating/rating-submit/handler_test.go
package ratingsubmit

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
	messages []line.Message
}

func (f *fakeReplier) Reply(ctx context.Context, replyToken string, messages ...line.Message) error {
	f.messages = append(f.messages, messages...)
	return nil
}

func (f *fakeReplier) text(i int) string {
	return f.messages[i].(*messaging_api.TextMessage).Text
}

type fakeService struct {
	records []rating.Record
	err     error
}

func (f *fakeService) Submit(ctx context.Context, record rating.Record) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, record)
	return nil
}

func TestHandler_Submit(t *testing.T) {
	svc := &fakeService{}
	r := &fakeReplier{}
	h := NewHandler(LoadConfig(), svc, r, logger.NewTestLogger(t))

	output, err := h.execute(context.Background(), &Input{ReplyToken: "rt", UserID: "U1", Text: "評分 市府停車場 💩💩💩"})
	require.NoError(t, err)

	assert.Equal(t, &Output{Place: "市府停車場", Score: 3}, output)
	assert.Equal(t, []rating.Record{{Place: "市府停車場", Score: 3}}, svc.records)
	require.Len(t, r.messages, 1)
	assert.Equal(t, "感謝您對「市府停車場」的評分！你的評分是：💩 3 分，對於其他人來說非常有幫助！", r.text(0))
}

func TestHandler_Errors(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		storeErr error
		wantCode apperrors.ErrorCode
	}{
		{name: "no glyphs", text: "評分 市府公廁 好", wantCode: apperrors.ErrCodeInvalidRatingCommand},
		{name: "too many glyphs", text: "評分 市府公廁 💩💩💩💩💩💩", wantCode: apperrors.ErrCodeInvalidRatingCommand},
		{
			name:     "store down",
			text:     "評分 市府公廁 💩",
			storeErr: apperrors.NewRatingStoreFailedError("append", errors.New("quota exceeded")),
			wantCode: apperrors.ErrCodeRatingStoreFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{err: tt.storeErr}
			r := &fakeReplier{}
			h := NewHandler(LoadConfig(), svc, r, logger.NewTestLogger(t))

			err := h.Handle(context.Background(), Input{ReplyToken: "rt", Text: tt.text})
			assert.True(t, apperrors.HasCode(err, tt.wantCode))
			assert.Empty(t, svc.records)
			require.Len(t, r.messages, 1)
			assert.Equal(t, rating.ErrorReply, r.text(0))
		})
	}
}
