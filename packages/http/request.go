package http

import (
	"strings"
	"time"

	"github.com/abdul-hamid-achik/apiflow/packages/value"
)

type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Query   map[string]string
	Body    value.Value
	Timeout time.Duration
}

func NewRequest(method, requestURL string) *Request {
	return &Request{
		Method:  strings.ToUpper(method),
		URL:     requestURL,
		Headers: make(map[string]string),
		Query:   make(map[string]string),
	}
}

func (r *Request) SetHeader(key, val string) *Request {
	r.Headers[key] = val
	return r
}

func (r *Request) SetQueryParam(key, val string) *Request {
	r.Query[key] = val
	return r
}

func (r *Request) SetBody(body value.Value) *Request {
	r.Body = body
	return r
}

func (r *Request) SetTimeout(d time.Duration) *Request {
	r.Timeout = d
	return r
}

// Header looks up a request header case-insensitively.
func (r *Request) Header(key string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

// encodeBody returns the payload to send and the content type it implies.
// Strings are sent verbatim; everything else is sent as JSON.
func (r *Request) encodeBody() ([]byte, string, error) {
	switch r.Body.Kind() {
	case value.KindUndefined, value.KindNull:
		return nil, "", nil
	case value.KindString:
		s, _ := r.Body.AsString()
		return []byte(s), "", nil
	default:
		data, err := r.Body.MarshalJSON()
		if err != nil {
			return nil, "", err
		}
		return data, "application/json", nil
	}
}

// JoinURL prefixes url with base. Absolute URLs are returned as they are.
func JoinURL(base, url string) string {
	if base == "" || strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	return base + url
}
