package llm

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"strings"
	"time"
)

// imageFetchTimeout bounds screenshot downloads separately from the
// comparison call so a slow CDN cannot eat into the provider timeout.
const imageFetchTimeout = 30 * time.Second

// maxImageBytes caps downloaded screenshots. Both providers reject
// multi-megabyte inline images anyway.
const maxImageBytes = 8 << 20

var imageHTTPClient = &http.Client{Timeout: imageFetchTimeout}

// fetchImageBytes resolves an image reference (data URI or URL) to raw PNG
// bytes. Image attachment is best-effort: every failure returns nil and the
// comparison proceeds text-only.
func fetchImageBytes(ctx context.Context, ref string) []byte {
	if ref == "" {
		return nil
	}
	if strings.HasPrefix(ref, "data:") {
		_, b64, ok := strings.Cut(ref, ",")
		if !ok {
			return nil
		}
		data, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return nil
		}
		return data
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil
	}
	resp, err := imageHTTPClient.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil || len(data) == 0 || len(data) > maxImageBytes {
		return nil
	}
	return data
}

// fetchImageDataURI is fetchImageBytes for providers that take data URIs
// (OpenAI image_url parts keep the header).
func fetchImageDataURI(ctx context.Context, ref string) string {
	if strings.HasPrefix(ref, "data:") {
		return ref
	}
	data := fetchImageBytes(ctx, ref)
	if data == nil {
		return ""
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
}
