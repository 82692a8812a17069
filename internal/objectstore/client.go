package objectstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strings"
	"time"

	"collectord/internal/config"
	"collectord/internal/services"
)

// Client uploads media files to the hosting endpoint and deletes them by
// remote location.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds an object-storage client from configuration.
func NewClient(cfg *config.Config) *Client {
	timeout := time.Duration(cfg.Storage.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.Storage.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type uploadResponse struct {
	FileURL string `json:"file_url"`
	URL     string `json:"url"`
}

// Upload sends the local file as multipart form data under the given
// remote filename and returns the location the endpoint stored it at.
func (c *Client) Upload(ctx context.Context, localPath, filename string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", services.Wrap(services.ErrArchive, "objectstore", "upload",
			fmt.Sprintf("open %s", localPath), err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", "video/mp4")
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", services.Wrap(services.ErrArchive, "objectstore", "upload",
			fmt.Sprintf("read %s", localPath), err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/upload-file", &body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	respBody, err := c.do(req)
	if err != nil {
		return "", services.Wrap(services.ErrArchive, "objectstore", "upload", filename, err)
	}

	var parsed uploadResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", services.Wrap(services.ErrArchive, "objectstore", "upload",
			"decode upload response", err)
	}
	location := parsed.FileURL
	if location == "" {
		location = parsed.URL
	}
	if location == "" {
		return "", services.Wrap(services.ErrArchive, "objectstore", "upload",
			"upload response carried no file location", nil)
	}
	return location, nil
}

// Delete removes previously uploaded files by their remote locations.
func (c *Client) Delete(ctx context.Context, locations ...string) error {
	if len(locations) == 0 {
		return nil
	}
	payload, err := json.Marshal(map[string][]string{"file_urls": locations})
	if err != nil {
		return fmt.Errorf("marshal delete request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/delete-files", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if _, err := c.do(req); err != nil {
		return services.Wrap(services.ErrArchive, "objectstore", "delete", "", err)
	}
	return nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
