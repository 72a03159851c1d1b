package portrait

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"portraitstudio/internal/domain"
	"portraitstudio/internal/imageconv"
	"portraitstudio/internal/notify"
)

const maxDownloadBytes = 32 << 20

// Download describes a saved portrait.
type Download struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Bytes    int    `json:"bytes"`
}

// Filename returns the download name for a portrait saved at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("japanese-woman-portrait-%d.png", t.UnixMilli())
}

// DownloadResult fetches the retained result and saves it locally. It does
// not touch the studio state.
func (o *Orchestrator) DownloadResult(ctx context.Context) (*Download, error) {
	result := o.Result()
	if result == nil {
		return nil, domain.ErrNoResult
	}
	filename := Filename(o.clock())

	dl, err := o.download(ctx, result.URL, filename)
	if err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrDownloadFailed, err)
		o.logger.Error().Err(err).Str("filename", filename).Msg("portrait download failed")
		o.report(err)
		o.notifier.Notify(ctx, notify.Failure(notify.KeyDownloadFailure))
		return nil, err
	}
	o.logger.Info().Str("path", dl.Path).Int("bytes", dl.Bytes).Msg("portrait downloaded")
	o.notifier.Notify(ctx, notify.Success(notify.KeyDownloadSuccess))
	return dl, nil
}

func (o *Orchestrator) download(ctx context.Context, location, filename string) (*Download, error) {
	b, err := openBlob(ctx, o.fetcher, location)
	if err != nil {
		return nil, err
	}
	defer b.Release()

	data, err := b.Bytes()
	if err != nil {
		return nil, err
	}
	data, err = imageconv.ToPNG(data)
	if err != nil {
		return nil, fmt.Errorf("convert to png: %w", err)
	}
	path, err := o.saver.Save(ctx, filename, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return &Download{Filename: filename, Path: path, Bytes: len(data)}, nil
}

// blob is the transient handle to fetched image bytes. Release must be
// called once the bytes have been handed to the saver.
type blob struct {
	body     io.ReadCloser
	data     []byte
	read     bool
	released bool
}

func openBlob(ctx context.Context, f Fetcher, location string) (*blob, error) {
	body, err := f.Fetch(ctx, location)
	if err != nil {
		return nil, err
	}
	return &blob{body: body}, nil
}

func (b *blob) Bytes() ([]byte, error) {
	if b.released {
		return nil, errors.New("blob already released")
	}
	if b.read {
		return b.data, nil
	}
	data, err := io.ReadAll(io.LimitReader(b.body, maxDownloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) > maxDownloadBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", maxDownloadBytes)
	}
	if len(data) == 0 {
		return nil, errors.New("image is empty")
	}
	b.data, b.read = data, true
	return data, nil
}

func (b *blob) Release() {
	if b.released {
		return
	}
	b.released = true
	b.data = nil
	_ = b.body.Close()
}

// HTTPFetcher fetches http(s) locations and decodes data: URLs in place.
type HTTPFetcher struct {
	Client *http.Client
}

// NewHTTPFetcher returns a fetcher using client, or a client with a one
// minute timeout when nil.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: time.Minute}
	}
	return &HTTPFetcher{Client: client}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, location string) (io.ReadCloser, error) {
	location = strings.TrimSpace(location)
	if strings.HasPrefix(strings.ToLower(location), "data:") {
		data, err := decodeDataURL(location)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	parsed, err := url.Parse(location)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("invalid image url: %q", location)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	if resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("download status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func decodeDataURL(location string) ([]byte, error) {
	meta, payload, ok := strings.Cut(location[len("data:"):], ",")
	if !ok {
		return nil, errors.New("malformed data url")
	}
	if strings.HasSuffix(strings.ToLower(meta), ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("decode data url: %w", err)
		}
		return data, nil
	}
	unescaped, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data url: %w", err)
	}
	return []byte(unescaped), nil
}

var _ Fetcher = (*HTTPFetcher)(nil)
