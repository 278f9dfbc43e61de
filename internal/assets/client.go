package assets

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"atelier-backend/config"

	"github.com/google/uuid"
)

// Store is the external object-storage/CDN boundary. Upload returns a stable
// reference URL; Destroy removes the object behind a previously derived public
// id. Calls may fail independently of the record store.
type Store interface {
	Upload(ctx context.Context, data []byte, contentType, folder string) (string, error)
	Destroy(ctx context.Context, publicID string) error
}

var ErrUploadsDisabled = errors.New("asset store not configured")

const defaultRequestTimeout = 15 * time.Second

// NewStore builds the image-CDN client from startup configuration. Missing
// credentials yield a noop store so the server keeps running without remote
// storage: uploads are rejected, deletes are silently dropped.
func NewStore(cfg *config.Config) Store {
	if cfg.CloudName == "" || cfg.CloudAPIKey == "" || cfg.CloudAPISecret == "" {
		return noopStore{}
	}
	return &cdnStore{
		cloudName: cfg.CloudName,
		apiKey:    cfg.CloudAPIKey,
		apiSecret: cfg.CloudAPISecret,
		baseURL:   "https://api.cloudinary.com",
		httpClient: &http.Client{
			Timeout: defaultRequestTimeout,
		},
	}
}

type noopStore struct{}

func (noopStore) Upload(ctx context.Context, data []byte, contentType, folder string) (string, error) {
	return "", ErrUploadsDisabled
}

func (noopStore) Destroy(ctx context.Context, publicID string) error {
	return nil
}

// cdnStore talks to a Cloudinary-style upload API: multipart upload requests
// and form-encoded destroy requests, both authenticated by an SHA-1 signature
// over the sorted request parameters plus the API secret.
type cdnStore struct {
	cloudName  string
	apiKey     string
	apiSecret  string
	baseURL    string
	httpClient *http.Client
}

func (s *cdnStore) Upload(ctx context.Context, data []byte, contentType, folder string) (string, error) {
	publicID := uuid.NewString()
	params := map[string]string{
		"public_id": publicID,
		"timestamp": strconv.FormatInt(time.Now().Unix(), 10),
	}
	if folder != "" {
		params["folder"] = folder
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range params {
		if err := writer.WriteField(k, v); err != nil {
			return "", fmt.Errorf("build upload request: %w", err)
		}
	}
	if err := writer.WriteField("api_key", s.apiKey); err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	if err := writer.WriteField("signature", s.sign(params)); err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	fileHeader := textproto.MIMEHeader{}
	fileHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, publicID))
	fileHeader.Set("Content-Type", contentType)
	part, err := writer.CreatePart(fileHeader)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}

	target := fmt.Sprintf("%s/v1_1/%s/image/upload", s.baseURL, s.cloudName)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, target, &body)
	if err != nil {
		return "", fmt.Errorf("create upload request: %w", err)
	}
	request.Header.Set("Content-Type", writer.FormDataContentType())

	response, err := s.httpClient.Do(request)
	if err != nil {
		return "", fmt.Errorf("upload object %s: %w", publicID, err)
	}
	defer func() {
		_ = response.Body.Close()
	}()
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return "", fmt.Errorf("upload object %s: unexpected status %d", publicID, response.StatusCode)
	}

	var result struct {
		SecureURL string `json:"secure_url"`
		URL       string `json:"url"`
	}
	if err := json.NewDecoder(io.LimitReader(response.Body, 1<<20)).Decode(&result); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if result.SecureURL != "" {
		return result.SecureURL, nil
	}
	if result.URL != "" {
		return result.URL, nil
	}
	return "", fmt.Errorf("upload object %s: response carried no reference", publicID)
}

func (s *cdnStore) Destroy(ctx context.Context, publicID string) error {
	params := map[string]string{
		"public_id": publicID,
		"timestamp": strconv.FormatInt(time.Now().Unix(), 10),
	}

	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	form.Set("api_key", s.apiKey)
	form.Set("signature", s.sign(params))

	target := fmt.Sprintf("%s/v1_1/%s/image/destroy", s.baseURL, s.cloudName)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create destroy request: %w", err)
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := s.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("destroy object %s: %w", publicID, err)
	}
	defer func() {
		_ = response.Body.Close()
	}()
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("destroy object %s: unexpected status %d", publicID, response.StatusCode)
	}
	return nil
}

// sign computes the request signature: parameters sorted by name, joined as a
// query string, concatenated with the API secret and hashed.
func (s *cdnStore) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + s.apiSecret))
	return hex.EncodeToString(sum[:])
}
