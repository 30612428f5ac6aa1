package apicheck

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Client выполняет запросы к API тестового окружения.
// Темп запросов и счетчик суффиксов живут в полях объекта,
// а не в состоянии процесса, чтобы параллельные прогоны не мешали
// друг другу.
type Client struct {
	BaseURL     string
	HTTP        *http.Client
	MinInterval time.Duration

	mu            sync.Mutex
	lastRequestAt time.Time
	suffixCounter int
}

// NewClient создает клиента с таймаутом и минимальным интервалом
// между запросами (ограничитель API пропускает ~1 запрос в секунду).
func NewClient(baseURL string, timeout, minInterval time.Duration) *Client {
	return &Client{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		HTTP:        &http.Client{Timeout: timeout},
		MinInterval: minInterval,
	}
}

// UniqueSuffix возвращает уникальный суффикс для тестовых данных,
// чтобы прогоны не сталкивались по username/email.
func (c *Client) UniqueSuffix() string {
	c.mu.Lock()
	c.suffixCounter++
	n := c.suffixCounter
	c.mu.Unlock()
	return fmt.Sprintf("%d%d", time.Now().UnixNano(), n)
}

// RequestJSON отправляет запрос с JSON-телом и возвращает статус и тело.
// Статусы ошибок HTTP считаются обычным результатом, а не error.
func (c *Client) RequestJSON(ctx context.Context, method, path string, payload any, headers map[string]string) (int, []byte, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal payload: %w", err)
		}
	}
	return c.do(ctx, method, path, body, payload != nil, headers)
}

// RequestRaw отправляет произвольное тело как есть
// (для проверок с намеренно битым JSON).
func (c *Client) RequestRaw(ctx context.Context, method, path string, body []byte, headers map[string]string) (int, []byte, error) {
	return c.do(ctx, method, path, body, len(body) > 0, headers)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, jsonBody bool, headers map[string]string) (int, []byte, error) {
	if err := c.throttle(ctx); err != nil {
		return 0, nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if jsonBody {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response body: %w", err)
	}
	return resp.StatusCode, data, nil
}

// throttle выдерживает MinInterval между запросами.
func (c *Client) throttle(ctx context.Context) error {
	if c.MinInterval <= 0 {
		return nil
	}
	c.mu.Lock()
	wait := c.MinInterval - time.Since(c.lastRequestAt)
	c.lastRequestAt = time.Now().Add(maxDuration(wait, 0))
	c.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
