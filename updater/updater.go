package updater

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// UpdateClient pushes DNS record updates to the ddns service's HTTP API.
type UpdateClient struct {
	baseURL string
	client  *http.Client
}

func NewUpdateClient(baseURL string) *UpdateClient {
	return &UpdateClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type updateRequest struct {
	Domain string `json:"domain"`
	IP     string `json:"ip,omitempty"`
}

// Update sets the A record for domain via POST /update, authenticated with
// the per-domain bearer key. An empty ip asks the server to auto-detect the
// caller's address. Returns the service's message.
func (c *UpdateClient) Update(ctx context.Context, key, domain, ip string) (string, error) {
	logger := log.WithFields(log.Fields{
		"api":    c.baseURL,
		"domain": domain,
		"ip":     ip,
	})
	logger.Debug("sending update request")

	body, err := json.Marshal(updateRequest{Domain: domain, IP: ip})
	if err != nil {
		return "", fmt.Errorf("encoding update request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/update", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building update request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		logger.WithError(err).Error("update request failed")
		return "", fmt.Errorf("sending update request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading update response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		logger.WithField("status", resp.StatusCode).Error("update rejected")
		return "", fmt.Errorf("update returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	result := gjson.ParseBytes(respBody)
	message := result.Get("message").String()
	if !result.Get("success").Bool() {
		logger.WithField("message", message).Error("update refused")
		return message, fmt.Errorf("update refused: %s", message)
	}

	logger.WithField("message", message).Debug("update accepted")
	return message, nil
}
