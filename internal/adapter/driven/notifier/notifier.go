// Package notifier adapts the scheduler's best-effort event notifications
// to Telegram's bot API, or to the log when no bot token is configured.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yongseopkim/workrecap/internal/domain/port/driven"
)

var _ driven.Notifier = (*LogNotifier)(nil)
var _ driven.Notifier = (*TelegramNotifier)(nil)

// LogNotifier logs every event at info level and never errors. It is the
// default notifier when no Telegram bot is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier. A nil logger falls back to slog.Default().
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, event, message string) error {
	n.logger.Info("scheduler event", "event", event, "message", message)
	return nil
}

const telegramAPIBase = "https://api.telegram.org"

// TelegramNotifier posts scheduler events to a Telegram chat via the bot
// sendMessage API. Used when a bot token and chat ID are configured.
type TelegramNotifier struct {
	botToken string
	chatID   string
	apiBase  string
	client   *http.Client
}

// NewTelegramNotifier builds a TelegramNotifier posting to chatID with botToken.
func NewTelegramNotifier(botToken, chatID string, timeout time.Duration) *TelegramNotifier {
	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  telegramAPIBase,
		client:   &http.Client{Timeout: timeout},
	}
}

// NewTelegramNotifierWithBase is a test constructor allowing callers to
// point the notifier at an httptest.Server instead of the real Telegram API.
func NewTelegramNotifierWithBase(botToken, chatID, apiBase string, httpClient *http.Client) *TelegramNotifier {
	return &TelegramNotifier{botToken: botToken, chatID: chatID, apiBase: apiBase, client: httpClient}
}

func (n *TelegramNotifier) Notify(ctx context.Context, event, message string) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken)
	text := fmt.Sprintf("[%s] %s", event, message)

	body, err := json.Marshal(map[string]string{
		"chat_id": n.chatID,
		"text":    text,
	})
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)))
	if err != nil {
		return fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("telegram notification failed: status %s", resp.Status)
	}
	return nil
}
