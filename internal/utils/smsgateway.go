package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// SMSClient talks to the SMS gateway over HTTP. The transport keeps a
// bounded connection pool; a request that cannot acquire a free
// connection before the acquire timeout fails like any other delivery
// error instead of queueing forever.
type SMSClient struct {
	BaseURL string
	APIKey  string
	Sender  string
	DryRun  bool

	http *http.Client
}

// SMSPoolConfig bounds the gateway connection pool.
type SMSPoolConfig struct {
	MaxConnections     int
	MaxIdleConnections int
	IdleTimeout        time.Duration
	AcquireTimeout     time.Duration
}

// SendSMSResponse is the gateway's structured reply. Code 0 is success;
// anything else is a provider-side delivery failure.
type SendSMSResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		MessageID string `json:"messageId"`
	} `json:"data"`
}

func NewSMSClient(baseURL, apiKey, sender string, dryRun bool, pool SMSPoolConfig) *SMSClient {
	if pool.MaxConnections <= 0 {
		pool.MaxConnections = 10
	}
	if pool.MaxIdleConnections <= 0 {
		pool.MaxIdleConnections = pool.MaxConnections
	}
	if pool.IdleTimeout <= 0 {
		pool.IdleTimeout = 90 * time.Second
	}
	if pool.AcquireTimeout <= 0 {
		pool.AcquireTimeout = 10 * time.Second
	}
	transport := &http.Transport{
		MaxConnsPerHost:     pool.MaxConnections,
		MaxIdleConns:        pool.MaxIdleConnections,
		MaxIdleConnsPerHost: pool.MaxIdleConnections,
		IdleConnTimeout:     pool.IdleTimeout,
	}
	return &SMSClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Sender:  sender,
		DryRun:  dryRun,
		http: &http.Client{
			Transport: transport,
			// also caps time spent waiting for a pooled connection
			Timeout: pool.AcquireTimeout,
		},
	}
}

// SendSMS posts one message to the gateway and inspects the structured
// response status. In dry-run mode (or with no API key) the HTTP call is
// skipped and success is reported.
func (c *SMSClient) SendSMS(ctx context.Context, to, text string) (*SendSMSResponse, error) {
	if c.DryRun || c.APIKey == "" {
		log.WithFields(log.Fields{"to": to, "sender": c.Sender}).
			Info("[sms][gateway] dry-run, skipping HTTP call")
		return &SendSMSResponse{Code: 0}, nil
	}

	form := url.Values{
		"apiKey":    {c.APIKey},
		"recipient": {to},
		"text":      {text},
	}
	if c.Sender != "" {
		form.Set("from", c.Sender)
	}

	endpoint := c.BaseURL + "/service/message/sendsmsmessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build SMS request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send SMS request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read SMS response: %w", err)
	}

	var result SendSMSResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse SMS response: %w", err)
	}
	if result.Code != 0 {
		return nil, fmt.Errorf("sms gateway returned error code %d: %s", result.Code, result.Message)
	}

	log.WithFields(log.Fields{"to": to, "message_id": result.Data.MessageID}).
		Debug("[sms][gateway] accepted")
	return &result, nil
}
