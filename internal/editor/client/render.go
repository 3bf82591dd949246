package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"floorplan-editor/internal/editor/models"
)

// ============================================================
// Errors
// ============================================================

var (
	ErrEmptySource       = errors.New("no floor plan source provided")
	ErrMalformedResponse = errors.New("invalid response format from render service")
	ErrNoRenderRef       = errors.New("render response has no document reference")
)

// StatusError - неуспешный HTTP статус от сервиса рендера.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s: render service returned %d: %s", e.Op, e.StatusCode, msg)
}

// ============================================================
// Render service client
// ============================================================

// RenderResult - ответ сервиса: нормализованная геометрия и ссылка на документ.
type RenderResult struct {
	Elements  []models.Element
	RenderRef string
}

type parseRequest struct {
	Code string `json:"code"`
}

type parseResponse struct {
	Elements  *[]models.Element `json:"elements"`
	SVGURL    string            `json:"svg_url"`
	RenderRef string            `json:"renderRef"`
	Error     string            `json:"error"`
	Detail    string            `json:"detail"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient подменяет транспорт (для тестов).
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

// Render отправляет исходный текст плана и возвращает разобранный ответ.
func (c *Client) Render(ctx context.Context, source string) (*RenderResult, error) {
	if strings.TrimSpace(source) == "" {
		return nil, ErrEmptySource
	}

	payload, err := json.Marshal(parseRequest{Code: source})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/parse", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.Printf("[CLIENT] POST %s (%d bytes)", req.URL.Path, len(payload))
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reach render service: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Op: "parse", StatusCode: resp.StatusCode, Body: errorBody(data)}
	}

	var out parseResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if out.Elements == nil {
		return nil, ErrMalformedResponse
	}

	ref := out.RenderRef
	if ref == "" {
		ref = out.SVGURL
	}
	return &RenderResult{Elements: *out.Elements, RenderRef: ref}, nil
}

// FetchDocument скачивает документ рендера. stamp добавляется в query, чтобы
// кеш не отдал документ предыдущего цикла.
func (c *Client) FetchDocument(ctx context.Context, renderRef string, stamp uint64) (string, error) {
	if renderRef == "" {
		return "", ErrNoRenderRef
	}

	target, err := c.resolve(renderRef)
	if err != nil {
		return "", err
	}
	q := target.Query()
	q.Set("t", strconv.FormatUint(stamp, 10))
	target.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	log.Printf("[CLIENT] GET %s", target.RequestURI())
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("reach render service: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{Op: "fetch document", StatusCode: resp.StatusCode, Body: errorBody(data)}
	}
	return string(data), nil
}

func (c *Client) resolve(ref string) (*url.URL, error) {
	refURL, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("parse render ref: %w", err)
	}
	if refURL.IsAbs() {
		return refURL, nil
	}
	base, err := url.Parse(c.baseURL + "/")
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	return base.ResolveReference(refURL), nil
}

// errorBody достает сообщение из {"error": ...} или {"detail": ...}, иначе отдает тело как есть.
func errorBody(data []byte) string {
	var body parseResponse
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Detail != "" {
			return body.Detail
		}
	}
	return string(data)
}
