package picture

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/GoArmGo/PictureIt/internal/domain"
)

const (
	privateTokenHeader = "X-API-Private-Token"
	maxErrorBody       = 4 << 10
	maxResponseBody    = 1 << 20
)

// Client HTTP-клиент удалённого API изображений, реализует ports.ContentGateway.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	privateToken string
	logger       *slog.Logger
}

// NewClient создаёт клиент с фиксированным базовым URL и служебным токеном.
// timeout ограничивает каждый вызов целиком.
func NewClient(baseURL, privateToken string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		baseURL:      strings.TrimRight(baseURL, "/"),
		privateToken: privateToken,
		logger:       logger,
	}
}

// CreateImage реализует ports.ContentGateway.
func (c *Client) CreateImage(ctx context.Context, content domain.ImageContent) (*domain.RemoteImage, error) {
	var resp imageResponse
	if err := c.do(ctx, "create image", http.MethodPost, "/images", toRequest(content), &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, &domain.UpstreamError{Op: "create image", Body: "response carries no image id"}
	}
	return resp.toDomain(), nil
}

// ReplaceImage реализует ports.ContentGateway.
func (c *Client) ReplaceImage(ctx context.Context, remoteID string, content domain.ImageContent) (*domain.RemoteImage, error) {
	var resp imageResponse
	if err := c.do(ctx, "replace image", http.MethodPut, imagePath(remoteID), toRequest(content), &resp); err != nil {
		return nil, err
	}
	return resp.orID(remoteID), nil
}

// PatchImage реализует ports.ContentGateway, в теле только переданные поля.
func (c *Client) PatchImage(ctx context.Context, remoteID string, patch domain.ImagePatch) (*domain.RemoteImage, error) {
	body := imagePatchRequest{
		Data:        patch.Data,
		ContentType: patch.ContentType,
		Location:    patch.Location,
		Description: patch.Description,
	}
	var resp imageResponse
	if err := c.do(ctx, "patch image", http.MethodPatch, imagePath(remoteID), body, &resp); err != nil {
		return nil, err
	}
	return resp.orID(remoteID), nil
}

// DeleteImage реализует ports.ContentGateway.
func (c *Client) DeleteImage(ctx context.Context, remoteID string) error {
	return c.do(ctx, "delete image", http.MethodDelete, imagePath(remoteID), nil, nil)
}

// FetchImage реализует ports.ContentGateway.
func (c *Client) FetchImage(ctx context.Context, remoteID string) (*domain.RemoteImage, error) {
	var resp imageResponse
	if err := c.do(ctx, "fetch image", http.MethodGet, imagePath(remoteID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.orID(remoteID), nil
}

// do выполняет запрос и декодирует ответ в out.
// Все сбои возвращаются как *domain.UpstreamError с кодом и текстом ответа.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	start := time.Now()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("ошибка сериализации запроса %s: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("ошибка создания HTTP-запроса %s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(privateTokenHeader, c.privateToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("image API request failed", "op", op, "error", err,
			"duration_ms", time.Since(start).Milliseconds())
		return &domain.UpstreamError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("image API returned non-success status", "op", op, "status", resp.StatusCode,
			"duration_ms", time.Since(start).Milliseconds())
		return &domain.UpstreamError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(bodyBytes))}
	}

	c.logger.Debug("image API request completed", "op", op, "status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if out == nil {
		return nil
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return &domain.UpstreamError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &domain.UpstreamError{Op: op, StatusCode: resp.StatusCode, Body: "malformed response body", Err: err}
	}
	return nil
}

func imagePath(remoteID string) string {
	return "/images/" + url.PathEscape(remoteID)
}

func toRequest(content domain.ImageContent) imageRequest {
	return imageRequest{
		Data:        content.Data,
		ContentType: content.ContentType,
		Location:    content.Location,
		Description: content.Description,
	}
}

func (r imageResponse) toDomain() *domain.RemoteImage {
	return &domain.RemoteImage{
		ID:          string(r.ID),
		URL:         r.ImageURL,
		ContentType: r.ContentType,
		Location:    r.Location,
		Description: r.Description,
	}
}

// orID подставляет известный id, если ответ пустой (например 204)
func (r imageResponse) orID(id string) *domain.RemoteImage {
	img := r.toDomain()
	if img.ID == "" {
		img.ID = id
	}
	return img
}
