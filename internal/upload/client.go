// Package upload sends media files straight to the media service and drives
// the video publishing form.
package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shortreel/backend/internal/media"
	"github.com/shortreel/backend/internal/models"
)

// ErrUploadFailed is reported for every failure after validation passed.
var ErrUploadFailed = errors.New("Upload failed. Please try again.") //nolint:staticcheck // shown to users verbatim

// ValidationError rejects a file before anything is sent.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// FailedError carries the cause of an upload failure while presenting the
// generic ErrUploadFailed message.
type FailedError struct {
	Err error
}

func (e *FailedError) Error() string { return ErrUploadFailed.Error() }

func (e *FailedError) Unwrap() []error { return []error{ErrUploadFailed, e.Err} }

// CredentialSource hands out single-use upload credentials.
type CredentialSource interface {
	UploadCredential(ctx context.Context) (models.UploadCredential, error)
}

// ProgressFunc receives whole percentages in 0-100.
type ProgressFunc func(percent int)

// Client uploads files to an ImageKit-compatible upload endpoint.
type Client struct {
	credentials CredentialSource
	uploadURL   string
	publicKey   string
	http        *http.Client
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewClient returns a Client posting to uploadURL with publicKey, fetching a
// credential from creds for every upload.
func NewClient(creds CredentialSource, uploadURL, publicKey string, opts ...ClientOption) *Client {
	c := &Client{
		credentials: creds,
		uploadURL:   uploadURL,
		publicKey:   publicKey,
		http:        &http.Client{Timeout: 10 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Validate checks the declared media type and size for kind.
func Validate(file File, kind media.Kind) error {
	if !kind.Accepts(file.ContentType) {
		return &ValidationError{Message: fmt.Sprintf("Please upload a valid %s file", kind)}
	}
	if file.Size > kind.MaxSize() {
		return &ValidationError{Message: "File size must be less than " + kind.SizeLabel()}
	}
	return nil
}

// Upload validates file, obtains a credential and streams the file as a
// multipart form. On any failure after validation, progress is reset to 0.
func (c *Client) Upload(ctx context.Context, file File, kind media.Kind, progress ProgressFunc) (models.UploadResult, error) {
	if err := Validate(file, kind); err != nil {
		return models.UploadResult{}, err
	}

	result, err := c.upload(ctx, file, progress)
	if err != nil {
		if progress != nil {
			progress(0)
		}
		return models.UploadResult{}, &FailedError{Err: err}
	}
	return result, nil
}

func (c *Client) upload(ctx context.Context, file File, progress ProgressFunc) (models.UploadResult, error) {
	if c.credentials == nil {
		return models.UploadResult{}, errors.New("no credential source configured")
	}
	if file.Body == nil {
		return models.UploadResult{}, errors.New("file has no body")
	}

	cred, err := c.credentials.UploadCredential(ctx)
	if err != nil {
		return models.UploadResult{}, fmt.Errorf("fetch upload credential: %w", err)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		pw.CloseWithError(c.writeForm(mw, file, cred, progress))
	}()

	result, err := c.send(ctx, pr, mw.FormDataContentType())
	pr.CloseWithError(io.ErrClosedPipe)
	wg.Wait()
	return result, err
}

func (c *Client) writeForm(mw *multipart.Writer, file File, cred models.UploadCredential, progress ProgressFunc) error {
	fields := [][2]string{
		{"fileName", file.Name},
		{"publicKey", c.publicKey},
		{"signature", cred.Signature},
		{"expire", strconv.FormatInt(cred.Expire, 10)},
		{"token", cred.Token},
		{"useUniqueFileName", "true"},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return err
		}
	}

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(file.Name)))
	header.Set("Content-Type", file.ContentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return err
	}

	body := &progressReader{r: file.Body, total: file.Size, report: progress}
	if _, err := io.Copy(part, body); err != nil {
		return err
	}
	body.finish()
	return mw.Close()
}

func (c *Client) send(ctx context.Context, body io.Reader, contentType string) (models.UploadResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, body)
	if err != nil {
		return models.UploadResult{}, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return models.UploadResult{}, fmt.Errorf("post upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return models.UploadResult{}, fmt.Errorf("upload rejected with status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var result models.UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return models.UploadResult{}, fmt.Errorf("decode upload result: %w", err)
	}
	if err := result.Validate(); err != nil {
		return models.UploadResult{}, err
	}
	return result, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// progressReader reports the share of total read so far, only when it grows.
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	last   int
	report ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.total > 0 {
		pct := int(p.read * 100 / p.total)
		p.emit(min(pct, 100))
	}
	return n, err
}

// finish reports completion for bodies whose size was unknown or overstated.
func (p *progressReader) finish() {
	p.emit(100)
}

func (p *progressReader) emit(pct int) {
	if p.report == nil || pct <= p.last {
		return
	}
	p.last = pct
	p.report(pct)
}
