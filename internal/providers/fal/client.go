package fal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"renderstudio/internal/domain"
	"renderstudio/internal/imagedata"
	"renderstudio/internal/infra"
)

const (
	DefaultEndpoint     = "https://fal.run/fal-ai/nano-banana-pro/edit"
	DefaultAspectRatio  = "auto"
	DefaultOutputFormat = "png"

	defaultMaxImageBytes = 50 << 20
)

// Options configures the fal.ai image-edit client.
type Options struct {
	APIKey         string
	Endpoint       string
	AspectRatio    string
	OutputFormat   string
	MaxImageBytes  int64
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs the image-edit call and fetches the produced image so the
// result is returned in the same data URI form as the inputs.
type Client struct {
	apiKey        string
	endpoint      string
	aspectRatio   string
	outputFormat  string
	maxImageBytes int64
	httpClient    *http.Client
	logger        *infra.Logger
}

type editRequest struct {
	Prompt       string   `json:"prompt"`
	ImageURLs    []string `json:"image_urls"`
	AspectRatio  string   `json:"aspect_ratio"`
	OutputFormat string   `json:"output_format"`
}

type editResponse struct {
	Images []struct {
		URL         string `json:"url"`
		ContentType string `json:"content_type"`
	} `json:"images"`
	Description string `json:"description"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("fal: invalid endpoint %q: %w", endpoint, err)
	}
	aspectRatio := strings.TrimSpace(opts.AspectRatio)
	if aspectRatio == "" {
		aspectRatio = DefaultAspectRatio
	}
	outputFormat := strings.TrimSpace(opts.OutputFormat)
	if outputFormat == "" {
		outputFormat = DefaultOutputFormat
	}
	maxImageBytes := opts.MaxImageBytes
	if maxImageBytes <= 0 {
		maxImageBytes = defaultMaxImageBytes
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	return &Client{
		apiKey:        strings.TrimSpace(opts.APIKey),
		endpoint:      endpoint,
		aspectRatio:   aspectRatio,
		outputFormat:  outputFormat,
		maxImageBytes: maxImageBytes,
		httpClient:    httpClient,
		logger:        logger,
	}, nil
}

// Endpoint returns the configured image-edit URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// Generate submits the prompt and reference images, then downloads the first
// produced image and re-encodes it as a data URI.
func (c *Client) Generate(ctx context.Context, prompt string, images []imagedata.Payload) (imagedata.Payload, error) {
	if !c.HasCredentials() {
		return "", fmt.Errorf("fal: %w", domain.ErrMissingCredential)
	}
	payload := editRequest{
		Prompt:       prompt,
		ImageURLs:    make([]string, len(images)),
		AspectRatio:  c.aspectRatio,
		OutputFormat: c.outputFormat,
	}
	for i, img := range images {
		payload.ImageURLs[i] = string(img)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("fal: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("fal: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Key "+c.apiKey)

	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &domain.RemoteError{Message: domain.MessageGenerateFailed, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &domain.RemoteError{StatusCode: resp.StatusCode, Message: domain.MessageGenerateFailed, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var detail errorResponse
		if err := json.Unmarshal(raw, &detail); err == nil && strings.TrimSpace(detail.Message) != "" {
			return "", &domain.RemoteError{StatusCode: resp.StatusCode, Message: detail.Message}
		}
		return "", &domain.RemoteError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("API error: %d", resp.StatusCode)}
	}

	var decoded editResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("fal: decode response: %w", domain.ErrNoImageReturned)
	}
	imageURL, declaredMIME := firstImage(decoded)
	if imageURL == "" {
		return "", fmt.Errorf("fal: %w", domain.ErrNoImageReturned)
	}

	data, contentType, err := c.fetch(ctx, imageURL)
	if err != nil {
		return "", fmt.Errorf("fal: %w: %v", domain.ErrResultDecode, err)
	}
	if contentType == "" {
		contentType = declaredMIME
	}
	result, err := imagedata.Encode(data, contentType)
	if err != nil {
		return "", fmt.Errorf("fal: %w: %v", domain.ErrResultDecode, err)
	}
	c.logger.Debug().
		Int("images", len(images)).
		Int("result_bytes", len(data)).
		Dur("elapsed", time.Since(started)).
		Msg("fal: generated image")
	return result, nil
}

// fetch downloads the produced image. Inline data URIs are decoded without a
// network round trip.
func (c *Client) fetch(ctx context.Context, imageURL string) ([]byte, string, error) {
	imageURL = strings.TrimSpace(imageURL)
	if strings.HasPrefix(imageURL, "data:") {
		mimeType, data, err := imagedata.Decode(imagedata.Payload(imageURL))
		return data, mimeType, err
	}
	parsed, err := url.Parse(imageURL)
	if err != nil || parsed.Scheme == "" {
		return nil, "", fmt.Errorf("invalid image url: %s", imageURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("build download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("download status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxImageBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > c.maxImageBytes {
		return nil, "", fmt.Errorf("image exceeds %d bytes", c.maxImageBytes)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func firstImage(resp editResponse) (string, string) {
	if len(resp.Images) == 0 {
		return "", ""
	}
	return strings.TrimSpace(resp.Images[0].URL), resp.Images[0].ContentType
}
