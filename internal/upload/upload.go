// Package upload posts image payloads to the hosting API and interprets
// its JSON responses.
package upload

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/nailuu/shotput/internal/options"
)

// DefaultEndpoint is the image host's upload URL.
const DefaultEndpoint = "https://api.imgbb.com/1/upload"

// Client submits uploads. Requests are bounded only by the caller's
// context; there is no fixed timeout.
type Client struct {
	endpoint string
	http     *http.Client
	logger   *log.Logger
	verbose  bool
}

// NewClient returns a client for the given endpoint, or the default
// endpoint when it is empty.
func NewClient(endpoint string, logger *log.Logger, verbose bool) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{},
		logger:   logger,
		verbose:  verbose,
	}
}

// Upload posts the image as a multipart form: key, expiration and name
// (both only when set), then the image itself with its filename hint. The
// body is streamed, so image may be a live pipe from a capture tool.
func (c *Client) Upload(ctx context.Context, req *options.UploadRequest, image io.Reader, filename string) (*Result, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeForm(mw, req, image, filename)
		if cerr := mw.Close(); err == nil {
			err = cerr
		}
		pw.CloseWithError(err)
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, pr)
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	if c.verbose {
		c.logger.Printf("upload: POST %s (%s)", c.endpoint, filename)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upload response: %w", err)
	}
	if c.verbose {
		c.logger.Printf("upload: HTTP %s, %d byte response", resp.Status, len(body))
	}

	res, err := interpret(resp.StatusCode, body)
	if err != nil {
		return nil, err
	}
	if c.verbose && res.DeleteURL != "" {
		c.logger.Printf("upload: delete URL %s", res.DeleteURL)
	}
	return res, nil
}

func writeForm(mw *multipart.Writer, req *options.UploadRequest, image io.Reader, filename string) error {
	if err := mw.WriteField("key", req.APIKey); err != nil {
		return err
	}
	if req.ExpireSeconds > 0 {
		if err := mw.WriteField("expiration", strconv.Itoa(req.ExpireSeconds)); err != nil {
			return err
		}
	}
	if req.CustomName != "" {
		if err := mw.WriteField("name", req.CustomName); err != nil {
			return err
		}
	}

	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, image); err != nil {
		return fmt.Errorf("stream image: %w", err)
	}
	return nil
}
