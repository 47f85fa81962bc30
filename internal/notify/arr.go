package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fetcharr/internal/config"
)

// arrNotifier triggers a downloaded-scan command on a Radarr or Sonarr
// instance so the library imports the freshly mirrored item.
type arrNotifier struct {
	name     string
	baseURL  string
	apiKey   string
	command  string
	basePath string
	client   *http.Client
}

func newArrNotifier(name string, cfg config.Arr, command, basePath string) (Action, error) {
	if cfg.BaseURL == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("%s requires baseurl and api_key", name)
	}

	return &arrNotifier{
		name:     name,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		command:  command,
		basePath: strings.TrimRight(basePath, "/"),
		client:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (a *arrNotifier) Name() string {
	return a.name
}

func (a *arrNotifier) Run(itemName string) error {
	payload, err := json.Marshal(map[string]string{
		"name": a.command,
		"path": fmt.Sprintf("%s/%s/", a.basePath, itemName),
	})
	if err != nil {
		return fmt.Errorf("failed to encode command: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, a.baseURL+"/api/v3/command", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send command: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%s returned %s", a.command, resp.Status)
	}

	return nil
}
