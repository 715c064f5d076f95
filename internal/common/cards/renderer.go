// internal/common/cards/renderer.go
package cards

import (
	"context"
	"strconv"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"line-parking-bot/internal/common/agent"
	"line-parking-bot/internal/common/line"
	"line-parking-bot/internal/common/logger"
	"line-parking-bot/internal/common/rating"
)

const (
	defaultParkingName = "停車場"
	defaultToiletName  = "公廁"
	placeholder        = "-"

	mapButtonLabel  = "Google Map 🗺️"
	rateButtonLabel = "我要評分💩"

	detailColor = "#666666"
)

// RatingSource provides the current average score per place.
type RatingSource interface {
	Averages(ctx context.Context) (map[string]float64, error)
}

type Config struct {
	ParkingImageURL string
	ToiletImageURL  string
}

// Renderer turns structured records into flex carousels.
type Renderer struct {
	config  Config
	ratings RatingSource
	logger  logger.Logger
}

func NewRenderer(config Config, ratings RatingSource, log logger.Logger) *Renderer {
	return &Renderer{
		config:  config,
		ratings: ratings,
		logger:  log.With(map[string]interface{}{"component": "cards"}),
	}
}

func (r *Renderer) RenderParkingCards(records []agent.ParkingRecord) *messaging_api.FlexCarousel {
	bubbles := make([]messaging_api.FlexBubble, 0, capped(len(records)))
	for _, rec := range records[:capped(len(records))] {
		name := orDefault(rec.Name.String(), defaultParkingName)
		mapURL := rec.GoogleMapsURL.String()
		if mapURL == "" {
			mapURL = MapSearchURL(name)
		}

		bubbles = append(bubbles, messaging_api.FlexBubble{
			Hero: heroImage(r.config.ParkingImageURL),
			Body: verticalBox(
				title(name, false),
				detail("💫 類型："+orDefault(rec.Type.String(), placeholder)),
				detail("✅ 空位："+orDefault(rec.AvailableSeats.String(), placeholder)),
				detail("💰 費率："+orDefault(rec.FeeDescription.String(), placeholder)),
				detail("🕒 營業時間："+orDefault(rec.AvailableTime.String(), placeholder)),
			),
			Footer: verticalBox(mapButton(mapURL)),
		})
	}
	return &messaging_api.FlexCarousel{Contents: bubbles}
}

// RenderToiletCards looks up current averages once per call. When the lookup fails
// every card shows the no-score line.
func (r *Renderer) RenderToiletCards(ctx context.Context, records []agent.ToiletRecord) *messaging_api.FlexCarousel {
	if len(records) == 0 {
		return &messaging_api.FlexCarousel{Contents: []messaging_api.FlexBubble{}}
	}

	var averages map[string]float64
	if r.ratings != nil {
		var err error
		averages, err = r.ratings.Averages(ctx)
		if err != nil {
			r.logger.Warn("failed to load rating averages", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	bubbles := make([]messaging_api.FlexBubble, 0, capped(len(records)))
	for _, rec := range records[:capped(len(records))] {
		name := orDefault(rec.Name.String(), defaultToiletName)
		address := rec.Address.String()

		mapURL := rec.GoogleMapsURL.String()
		if mapURL == "" {
			mapURL = MapSearchURL(orDefault(address, name))
		}

		contents := []messaging_api.FlexComponentInterface{title(name, false)}
		if avg, ok := averages[name]; ok {
			contents = append(contents, detail("評分："+formatScore(avg)))
		} else {
			contents = append(contents, detail("評分：尚無分數 💩"))
		}
		for _, opt := range []struct{ label, value string }{
			{"🧻 類型：", rec.Type.String()},
			{"📏 距離：", rec.Distance.String()},
			{"📍 地址：", address},
			{"🚽 廁所數量：", rec.AvailableSeats.String()},
			{"♿ 無障礙：", rec.AccessibleSeats.String()},
			{"👨‍👩‍👧‍👦 親子：", rec.FamilySeats.String()},
		} {
			if opt.value != "" {
				contents = append(contents, detail(opt.label+opt.value))
			}
		}

		rate := &messaging_api.FlexButton{
			Action: &messaging_api.MessageAction{Label: rateButtonLabel, Text: rating.SetupPrefix + name + "|" + address},
		}
		bubbles = append(bubbles, messaging_api.FlexBubble{
			Hero:   heroImage(r.config.ToiletImageURL),
			Body:   verticalBox(contents...),
			Footer: verticalBox(mapButton(mapURL), rate),
		})
	}
	return &messaging_api.FlexCarousel{Contents: bubbles}
}

// RenderLeaderboard ranks entries in the given order, starting at No.1.
func (r *Renderer) RenderLeaderboard(entries []rating.Average) *messaging_api.FlexCarousel {
	bubbles := make([]messaging_api.FlexBubble, 0, capped(len(entries)))
	for i, e := range entries[:capped(len(entries))] {
		rank := &messaging_api.FlexText{
			Text:   "🏆 No." + strconv.Itoa(i+1),
			Weight: messaging_api.FlexTextWEIGHT_BOLD,
			Size:   "lg",
		}
		score := &messaging_api.FlexText{
			Text:  "平均分數：" + formatScore(e.Score),
			Size:  "md",
			Color: detailColor,
		}

		bubbles = append(bubbles, messaging_api.FlexBubble{
			Body:   verticalBox(rank, title(e.Place, true), score),
			Footer: verticalBox(mapButton(MapSearchURL(e.Place))),
		})
	}
	return &messaging_api.FlexCarousel{Contents: bubbles}
}

// formatScore renders "<avg to 1 decimal> <one glyph per whole point>".
func formatScore(avg float64) string {
	rounded := rating.RoundScore(avg)
	return strconv.FormatFloat(rounded, 'f', 1, 64) + " " + rating.Glyphs(int(rounded))
}

func verticalBox(contents ...messaging_api.FlexComponentInterface) *messaging_api.FlexBox {
	return &messaging_api.FlexBox{Layout: messaging_api.FlexBoxLAYOUT_VERTICAL, Contents: contents}
}

func heroImage(url string) *messaging_api.FlexImage {
	return &messaging_api.FlexImage{
		Url:         url,
		Size:        "full",
		AspectRatio: "20:13",
		AspectMode:  messaging_api.FlexImageASPECT_MODE_COVER,
	}
}

func title(text string, wrap bool) *messaging_api.FlexText {
	return &messaging_api.FlexText{Text: text, Weight: messaging_api.FlexTextWEIGHT_BOLD, Size: "xl", Wrap: wrap}
}

func detail(text string) *messaging_api.FlexText {
	return &messaging_api.FlexText{Text: text, Size: "sm", Color: detailColor}
}

func mapButton(uri string) *messaging_api.FlexButton {
	return &messaging_api.FlexButton{
		Style:  messaging_api.FlexButtonSTYLE_LINK,
		Height: messaging_api.FlexButtonHEIGHT_SM,
		Action: &messaging_api.UriAction{Label: mapButtonLabel, Uri: EnsureValidActionURI(uri)},
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func capped(n int) int {
	if n > line.MaxCarouselBubbles {
		return line.MaxCarouselBubbles
	}
	return n
}
