package deals

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// TelegramNotifier pushes deal events through the Telegram Bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier constructs a Telegram notifier.
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "deal_telegram").Logger(),
	}
}

// Notify sends the rendered deal message via sendMessage.
func (n *TelegramNotifier) Notify(ctx context.Context, event Event) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    renderMessage(event),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram responded %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram returned ok=false")
		}
	}

	n.logger.Info().
		Str("route", event.Route.Key()).
		Str("savings_pct", event.SavingsPct.String()).
		Msg("deal notification sent")
	return nil
}

func renderMessage(event Event) string {
	builder := strings.Builder{}
	builder.WriteString("✈️ [Flight Deal]\n")
	builder.WriteString(fmt.Sprintf("Route: %s\n", event.Route.Label))
	builder.WriteString(fmt.Sprintf("Travel date: %s\n", event.Quote.TravelDate.Format("2006-01-02")))
	builder.WriteString(fmt.Sprintf("Price: %s %s\n", event.Quote.Price.StringFixed(2), event.Quote.Currency))
	builder.WriteString(fmt.Sprintf("Historical mean: %s %s\n", event.HistoricalMean.StringFixed(2), event.Quote.Currency))
	builder.WriteString(fmt.Sprintf("Savings: %s%%\n", event.SavingsPct.StringFixed(1)))
	builder.WriteString(fmt.Sprintf("Source: %s (confidence %.2f)\n", event.Quote.Source, event.Quote.Confidence))
	return builder.String()
}

var _ Notifier = (*TelegramNotifier)(nil)
