package marketo

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	httpclient "github.com/natserract/mkto/pkg/http"
)

// Args is the loosely-typed argument bag for one call. Values may be
// strings, numbers, booleans, lists or nested maps.
type Args map[string]any

// Request is a fully-formed HTTP request. It is not modified after Build;
// WithToken returns an authorized copy.
type Request struct {
	Operation string
	Method    string
	URL       string
	Headers   map[string]string
	Body      []byte
}

// WithToken returns a copy of the request carrying a different bearer token.
func (r *Request) WithToken(token string) *Request {
	headers := make(map[string]string, len(r.Headers))
	for k, v := range r.Headers {
		headers[k] = v
	}
	headers["Authorization"] = "Bearer " + token
	return &Request{
		Operation: r.Operation,
		Method:    r.Method,
		URL:       r.URL,
		Headers:   headers,
		Body:      r.Body,
	}
}

// RequestBuilder turns an operation plus arguments into a Request.
type RequestBuilder struct {
	config *Config
}

// NewRequestBuilder creates a builder rooted at cfg's API roots.
func NewRequestBuilder(cfg *Config) *RequestBuilder {
	return &RequestBuilder{config: cfg}
}

// Build validates args against op, then places each argument in the path,
// the query string or the JSON body as the catalog entry dictates. It does
// no I/O beyond checking a file argument is readable; the bearer token is
// attached afterwards with WithToken.
func (b *RequestBuilder) Build(op Operation, args Args) (*Request, error) {
	if err := validateArgs(op, args); err != nil {
		return nil, err
	}

	remaining := make(map[string]any, len(args))
	for k, v := range args {
		if v != nil {
			remaining[k] = v
		}
	}

	path, err := substitutePath(op, remaining)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{
		"Content-Type": "application/json",
	}

	var body []byte
	if op.File != "" {
		body, err = buildMultipart(op, remaining, headers)
		if err != nil {
			return nil, err
		}
	}

	query := make(map[string]any)
	payload := make(map[string]any)
	for k, v := range remaining {
		if op.isList(k) {
			v = joinList(v)
		}
		if op.Placement == PlacementQuery || op.isPinnedQuery(k) {
			query[k] = v
		} else {
			payload[k] = v
		}
	}

	rawQuery := encodeQuery(query)
	if len(op.Repeated) > 0 {
		rawQuery = collapseIndexedKeys(rawQuery, op.Repeated)
	}

	if len(payload) > 0 {
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, &BuildError{Operation: op.Name, Msg: "failed to marshal body", Err: err}
		}
	}

	root := op.Root
	if root == "" {
		root = b.config.DefaultRoot()
	}
	endpoint, err := httpclient.BuildURL(b.config.RootURL(root), path, rawQuery)
	if err != nil {
		return nil, &BuildError{Operation: op.Name, Msg: "invalid endpoint", Err: err}
	}

	return &Request{
		Operation: op.Name,
		Method:    op.Method,
		URL:       endpoint,
		Headers:   headers,
		Body:      body,
	}, nil
}

func validateArgs(op Operation, args Args) error {
	for _, name := range op.Required {
		if isMissing(args[name]) {
			return &BuildError{Operation: op.Name, Param: name, Msg: "required parameter missing"}
		}
	}

	for _, name := range op.Ints {
		v, ok := args[name]
		if !ok || v == nil {
			continue
		}
		if _, ok := asInt(v); !ok {
			return &BuildError{Operation: op.Name, Param: name, Msg: fmt.Sprintf("expected an integer, got %v", v)}
		}
	}

	for name, keys := range op.Items {
		v, ok := args[name]
		if !ok || v == nil {
			continue
		}
		items, ok := asList(v)
		if !ok {
			return &BuildError{Operation: op.Name, Param: name, Msg: "expected a list"}
		}
		for i, item := range items {
			fields, ok := asMap(item)
			if !ok {
				return &BuildError{Operation: op.Name, Param: fmt.Sprintf("%s[%d]", name, i), Msg: "expected an object"}
			}
			for _, key := range keys {
				if isMissing(fields[key]) {
					return &BuildError{Operation: op.Name, Param: fmt.Sprintf("%s[%d].%s", name, i, key), Msg: "required field missing"}
				}
			}
		}
	}
	return nil
}

func substitutePath(op Operation, remaining map[string]any) (string, error) {
	var missing string
	path := placeholderRe.ReplaceAllStringFunc(op.Path, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := remaining[name]
		if !ok || isMissing(v) {
			if missing == "" {
				missing = name
			}
			return m
		}
		delete(remaining, name)
		return url.PathEscape(formatScalar(v))
	})
	if missing != "" {
		return "", &BuildError{Operation: op.Name, Param: missing, Msg: "path placeholder has no argument"}
	}
	return path, nil
}

// buildMultipart consumes the file argument and every body-placed argument
// into a multipart form, and switches the Content-Type accordingly.
func buildMultipart(op Operation, remaining map[string]any, headers map[string]string) ([]byte, error) {
	filePath, ok := remaining[op.File].(string)
	if !ok || filePath == "" {
		return nil, &BuildError{Operation: op.Name, Param: op.File, Msg: "expected a file path"}
	}
	if err := checkReadable(filePath); err != nil {
		return nil, &BuildError{Operation: op.Name, Param: op.File, Msg: "file is not readable", Err: err}
	}
	delete(remaining, op.File)

	fields := make(map[string]string)
	for k, v := range remaining {
		if op.Placement == PlacementQuery || op.isPinnedQuery(k) {
			continue
		}
		fields[k] = joinList(v)
		delete(remaining, k)
	}

	body, contentType, err := httpclient.MultipartFile(op.File, filePath, fields)
	if err != nil {
		return nil, &BuildError{Operation: op.Name, Param: op.File, Msg: "failed to encode file", Err: err}
	}
	headers["Content-Type"] = contentType
	return body, nil
}

func checkReadable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}

func isMissing(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	if items, ok := asList(v); ok {
		return len(items) == 0
	}
	return false
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case Args:
		return t, true
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, s := range t {
			out[k] = s
		}
		return out, true
	}
	return nil, false
}
