package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// Mailer entrega avisos por canal externo. A entrega é melhor esforço:
// quem chama loga a falha e segue em frente.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Message é o envelope entregue ao gateway de e-mail.
type Message struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// WebhookMailer publica a mensagem em um gateway HTTP de e-mail.
type WebhookMailer struct {
	webhookURL string
	from       string
	client     *http.Client
}

// NewWebhookMailer devolve nil quando não há URL configurada.
func NewWebhookMailer(webhookURL, from string) *WebhookMailer {
	if webhookURL == "" {
		return nil
	}
	return &WebhookMailer{
		webhookURL: webhookURL,
		from:       from,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

func (m *WebhookMailer) Send(ctx context.Context, msg Message) error {
	if m == nil || m.webhookURL == "" {
		return errors.New("mailer não configurado")
	}

	payload := map[string]any{
		"from":    m.from,
		"to":      msg.To,
		"subject": msg.Subject,
		"body":    msg.Body,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.webhookURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return errors.New("gateway de e-mail recusou a mensagem")
	}
	return nil
}
