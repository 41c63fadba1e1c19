package keepalive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const pingTimeout = 10 * time.Second

type Failure struct {
	Status     int    `json:"status,omitempty"`
	StatusText string `json:"statusText,omitempty"`
	Message    string `json:"message,omitempty"`
	URL        string `json:"url"`
}

type Check struct {
	Status int             `json:"status"`
	URL    string          `json:"url"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Result is the outcome of one health ping.
type Result struct {
	OK          bool     `json:"ok"`
	Timestamp   string   `json:"timestamp"`
	HealthCheck *Check   `json:"healthCheck,omitempty"`
	Error       *Failure `json:"error,omitempty"`
}

// Pinger calls {baseURL}/v1/health, keeping the API warm.
type Pinger struct {
	client  *http.Client
	baseURL string
}

func NewPinger(client *http.Client, baseURL string) *Pinger {
	if client == nil {
		client = &http.Client{}
	}
	return &Pinger{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (p *Pinger) URL() string {
	return p.baseURL + "/v1/health"
}

func (p *Pinger) Ping(ctx context.Context) Result {
	url := p.URL()
	res := Result{Timestamp: time.Now().UTC().Format(time.RFC3339)}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		res.Error = &Failure{Message: err.Error(), URL: url}
		return res
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		res.Error = &Failure{Message: err.Error(), URL: url}
		return res
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		res.Error = &Failure{Status: resp.StatusCode, Message: err.Error(), URL: url}
		return res
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		res.Error = &Failure{
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Message:    fmt.Sprintf("health check returned %d", resp.StatusCode),
			URL:        url,
		}
		return res
	}

	check := &Check{Status: resp.StatusCode, URL: url}
	if json.Valid(body) {
		check.Data = body
	}
	res.OK = true
	res.HealthCheck = check
	return res
}
