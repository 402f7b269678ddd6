package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"pipwatch/src/models"
)

// TelegramNotifier pushes high-score opportunity alerts to a Telegram chat.
// With no token or chat configured it stays disabled and every call is a
// silent no-op.
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	enabled  bool

	cooldown  time.Duration
	lastAlert map[string]time.Time
	mu        sync.Mutex
}

// NewTelegramNotifier creates a notifier. cooldown limits how often the
// same pair may alert; zero means no limit.
func NewTelegramNotifier(botToken, chatID string, cooldown time.Duration) *TelegramNotifier {
	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  "https://api.telegram.org",
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		enabled:   botToken != "" && chatID != "",
		cooldown:  cooldown,
		lastAlert: make(map[string]time.Time),
	}
}

// Enabled reports whether the notifier has credentials to send with
func (tn *TelegramNotifier) Enabled() bool {
	return tn.enabled
}

// AlertOpportunity sends an alert for the opportunity unless the pair
// alerted within the cooldown window.
func (tn *TelegramNotifier) AlertOpportunity(opp models.Opportunity) error {
	if !tn.enabled {
		return nil
	}

	tn.mu.Lock()
	if last, ok := tn.lastAlert[opp.Pair]; ok && time.Since(last) < tn.cooldown {
		tn.mu.Unlock()
		return nil
	}
	tn.lastAlert[opp.Pair] = time.Now()
	tn.mu.Unlock()

	action := "Buy"
	if opp.Trend == models.TrendBearish {
		action = "Sell"
	}

	message := fmt.Sprintf(
		"📊 <b>%s %s</b>\n\n"+
			"Score: <code>%.0f</code>\n"+
			"Confidence: <code>%.0f</code>\n"+
			"Rate: <code>%.4f</code>\n"+
			"Entry: <code>%.4f</code>\n"+
			"T/P: <code>%.4f</code>\n"+
			"S/L: <code>%.4f</code>\n"+
			"R/R: <code>%.1f</code>\n"+
			"Size: <code>%.0f</code>",
		action, opp.Pair, opp.Score, opp.Confidence, opp.CurrentPrice,
		opp.Entry, opp.TakeProfit, opp.StopLoss, opp.RiskReward, opp.PositionSize,
	)

	return tn.sendMessage(message)
}

func (tn *TelegramNotifier) sendMessage(text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", tn.baseURL, tn.botToken)

	payload := map[string]interface{}{
		"chat_id":    tn.chatID,
		"text":       text,
		"parse_mode": "HTML",
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram message: %w", err)
	}

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := tn.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram api: status %d, body: %s", resp.StatusCode, string(body))
	}

	return nil
}
