package notifier

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// CommandHandler is called when a user command is received.
type CommandHandler func(command string) string

// telegramUpdate represents a Telegram update from long polling.
type telegramUpdate struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
	} `json:"message"`
}

type updatesResponse struct {
	OK     bool             `json:"ok"`
	Result []telegramUpdate `json:"result"`
}

// StartPolling long-polls for bot commands until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	offset := 0
	for {
		select {
		case <-ctx.Done():
			t.logger.Info("telegram polling stopped")
			return
		default:
		}

		next, err := t.poll(ctx, offset, 30, handler)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			t.logger.Warn("polling request failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			continue
		}
		offset = next
	}
}

// poll fetches one batch of updates, dispatches them, and returns the next offset.
func (t *TelegramNotifier) poll(ctx context.Context, offset, timeoutSec int, handler CommandHandler) (int, error) {
	var result updatesResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetPathParam("token", t.BotToken).
		SetQueryParams(map[string]string{
			"offset":  strconv.Itoa(offset),
			"timeout": strconv.Itoa(timeoutSec),
		}).
		SetResult(&result).
		Get("/bot{token}/getUpdates")
	if err != nil {
		return offset, err
	}
	if !resp.IsSuccess() {
		return offset, &statusError{code: resp.StatusCode(), body: resp.String()}
	}

	for _, update := range result.Result {
		offset = update.UpdateID + 1
		if update.Message == nil || update.Message.Text == "" {
			continue
		}
		text := strings.TrimSpace(update.Message.Text)
		t.logger.Info("received command", zap.String("command", text))
		reply := handler(text)
		if reply != "" {
			if err := t.Send(ctx, reply); err != nil {
				t.logger.Error("send reply failed", zap.Error(err))
			}
		}
	}
	return offset, nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return "telegram getUpdates: status " + strconv.Itoa(e.code) + ": " + e.body
}
