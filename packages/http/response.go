package http

import (
	"bytes"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/apiflow/packages/value"
	"github.com/tidwall/gjson"
)

type Response struct {
	StatusCode int
	Status     string
	Headers    map[string]string
	Body       value.Value
	RawBody    []byte
	Duration   time.Duration
}

func (r *Response) BodyString() string {
	return string(r.RawBody)
}

func (r *Response) Header(key string) string {
	v, _ := r.LookupHeader(key)
	return v
}

// LookupHeader finds a header case-insensitively and reports whether it
// was present.
func (r *Response) LookupHeader(key string) (string, bool) {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

func (r *Response) IsJSON() bool {
	return strings.Contains(r.ContentType(), "json")
}

func (r *Response) DurationMs() int64 {
	return r.Duration.Milliseconds()
}

// DecodeBody turns a raw response body into a Value. Valid JSON is decoded
// with object key order preserved; anything else becomes a string.
func DecodeBody(raw []byte) value.Value {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || !gjson.ValidBytes(trimmed) {
		return value.NewString(string(raw))
	}
	return fromGJSON(gjson.ParseBytes(trimmed))
}

func fromGJSON(r gjson.Result) value.Value {
	switch r.Type {
	case gjson.Null:
		return value.Null
	case gjson.False:
		return value.NewBool(false)
	case gjson.True:
		return value.NewBool(true)
	case gjson.Number:
		return value.NewNumber(r.Num)
	case gjson.String:
		return value.NewString(r.Str)
	}

	if r.IsArray() {
		items := make([]value.Value, 0)
		r.ForEach(func(_, item gjson.Result) bool {
			items = append(items, fromGJSON(item))
			return true
		})
		return value.NewSequence(items...)
	}

	m := value.NewMap()
	r.ForEach(func(key, item gjson.Result) bool {
		m.Set(key.Str, fromGJSON(item))
		return true
	})
	return value.NewMapping(m)
}
