// Package resolver talks to the external video resolution service that
// turns a Shopee share link into a direct media URL.
package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/clipix/backend/internal/apperror"
)

// Video is the resolved media info for a share link.
type Video struct {
	Title    string `json:"title"`
	VideoURL string `json:"videoUrl"`
	CoverURL string `json:"coverUrl"`
	Duration int    `json:"duration"`
}

// Client calls the resolution API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient builds a resolver client authenticating via bearer token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    baseURL,
		token:      token,
	}
}

// Resolve exchanges a Shopee share link for a direct media URL.
func (c *Client) Resolve(ctx context.Context, videoURL string) (*Video, error) {
	payload, err := json.Marshal(map[string]string{"url": videoURL})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/resolve", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("falha ao contatar serviço de vídeo: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotFound:
		return nil, apperror.New(http.StatusNotFound, "Vídeo não encontrado")
	case http.StatusTooManyRequests:
		return nil, apperror.New(http.StatusTooManyRequests,
			"Limite de requisições excedido. Tente novamente mais tarde.")
	}

	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Data    *Video `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("resposta inválida do serviço de vídeo: %w", err)
	}
	if !body.Success || body.Data == nil || body.Data.VideoURL == "" {
		return nil, apperror.New(http.StatusBadGateway, "Falha ao obter URL do vídeo")
	}
	return body.Data, nil
}

// ProbeFileSize issues a HEAD request for the media URL and returns its
// Content-Length. Best effort, returns 0 when the origin does not say.
func (c *Client) ProbeFileSize(ctx context.Context, mediaURL string) int64 {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, mediaURL, nil)
	if err != nil {
		return 0
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0
	}
	defer resp.Body.Close()
	if resp.ContentLength > 0 {
		return resp.ContentLength
	}
	return 0
}
