package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	// ErrUnavailable indique que le service de génération n'a pas répondu
	ErrUnavailable = errors.New("generation service unavailable")
	// ErrInvalidResponse indique une réponse inexploitable du service
	ErrInvalidResponse = errors.New("invalid response format from generation service")
)

// Client appelle le service de génération externe. Le service est traité
// comme une boîte noire: un prompt entre, un document sort.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

func NewClient(endpoint string) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{},
	}
}

// Generate envoie le prompt au service externe et retourne le corps brut de
// la réponse. Le timeout est porté par le contexte de l'appelant.
func (c *Client) Generate(ctx context.Context, prompt string) ([]byte, error) {
	payload, err := json.Marshal(generateRequest{Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("failed to encode generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read generation response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	return body, nil
}
