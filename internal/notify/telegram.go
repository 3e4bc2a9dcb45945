package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"lmswatch-backend/internal/assert"
	"lmswatch-backend/internal/telemetry"

	"github.com/go-resty/resty/v2"
)

const report_telegram_send = "telegram.send"

type TelegramConfig struct {
	BotToken string `json:"bot_token"`
	// ApiUrl defaults to https://api.telegram.org
	ApiUrl string `json:"api_url"`
}

// Telegram delivers html documents through the bot api's sendMessage method.
type Telegram struct {
	http  *resty.Client
	token string
	tel   telemetry.API
}

func NewTelegram(config TelegramConfig, tel telemetry.API) *Telegram {
	assert.NotNil(tel, "telemetry")
	assert.NotEmptyStr(config.BotToken, "telegram bot token")

	apiUrl := config.ApiUrl
	if apiUrl == "" {
		apiUrl = "https://api.telegram.org"
	}

	tel = telemetry.NewScopedAPI("telegram", tel)

	client := resty.New()
	client.SetBaseURL(strings.TrimSuffix(apiUrl, "/"))
	client.SetTimeout(time.Second * 15)
	telemetry.InstrumentResty(client, tel)

	return &Telegram{
		http:  client,
		token: config.BotToken,
		tel:   tel,
	}
}

type sendMessageRequest struct {
	ChatId    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

func (t *Telegram) Send(ctx context.Context, chatId, document string) error {
	res, err := t.http.R().
		SetContext(ctx).
		SetBody(sendMessageRequest{
			ChatId:    chatId,
			Text:      document,
			ParseMode: "HTML",
		}).
		Post(fmt.Sprintf("/bot%s/sendMessage", t.token))
	if err != nil {
		t.tel.ReportWarning(report_telegram_send, err, chatId)
		return fmt.Errorf("telegram: send message: %w", err)
	}
	if res.StatusCode() != http.StatusOK {
		err := fmt.Errorf("telegram: send message: unexpected status %d", res.StatusCode())
		t.tel.ReportWarning(report_telegram_send, err, chatId, res.String())
		return err
	}
	return nil
}
