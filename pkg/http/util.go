package http

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// sensitiveParams are masked before a URL is written to the logs.
var sensitiveParams = []string{"access_token", "client_secret"}

// BuildURL joins an already-escaped path onto baseURL's path and attaches an
// already-encoded query string verbatim, so callers control the exact
// encoding of both.
func BuildURL(baseURL, path string, rawQuery string) (string, error) {
	// Parse the base URL
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("error parsing base URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return "", fmt.Errorf("base URL %q must be absolute", baseURL)
	}

	// Append the path, keeping escapes such as %2F inside a segment
	rawPath := strings.TrimRight(parsedURL.EscapedPath(), "/") + "/" + strings.TrimLeft(path, "/")
	decoded, err := url.PathUnescape(rawPath)
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", path, err)
	}
	parsedURL.Path = decoded
	parsedURL.RawPath = rawPath
	parsedURL.RawQuery = rawQuery

	// Return the full URL as a string
	return parsedURL.String(), nil
}

// MultipartFile reads filePath into a multipart/form-data body under
// fieldName, alongside the given plain fields. It returns the body and the
// Content-Type header value carrying the boundary.
func MultipartFile(fieldName, filePath string, fields map[string]string) ([]byte, string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open %s: %w", filePath, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := fields[k]
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", k, err)
		}
	}

	part, err := w.CreateFormFile(fieldName, filepath.Base(filePath))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("failed to copy %s: %w", filePath, err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart body: %w", err)
	}

	return buf.Bytes(), w.FormDataContentType(), nil
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return raw
	}
	q := u.Query()
	changed := false
	for _, name := range sensitiveParams {
		if q.Has(name) {
			q.Set(name, "REDACTED")
			changed = true
		}
	}
	if !changed {
		return raw
	}
	u.RawQuery = q.Encode()
	return u.String()
}
