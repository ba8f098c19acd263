// Package curl converts curl command lines into apiflow suites.
package curl

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Converter converts curl commands to apiflow suite YAML.
type Converter struct {
	statusCode int
	suiteName  string
}

type Option func(*Converter)

// WithStatusCode sets the status code every generated test expects.
func WithStatusCode(code int) Option {
	return func(c *Converter) {
		c.statusCode = code
	}
}

func WithSuiteName(name string) Option {
	return func(c *Converter) {
		c.suiteName = name
	}
}

func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		statusCode: 200,
		suiteName:  "imported",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ParsedCurl is the part of a curl command apiflow can express.
type ParsedCurl struct {
	Method    string
	URL       string
	Headers   map[string]string
	Body      string
	BasicAuth string
	Name      string
}

// Suite document written by the converter; field order follows the
// layout of hand-written suites.
type suiteDoc struct {
	Name    string    `yaml:"name"`
	BaseURL string    `yaml:"baseUrl,omitempty"`
	Tests   []testDoc `yaml:"tests"`
}

type testDoc struct {
	Name    string     `yaml:"name"`
	Request requestDoc `yaml:"request"`
	Expect  expectDoc  `yaml:"expect"`
}

type requestDoc struct {
	Method  string            `yaml:"method"`
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Query   map[string]string `yaml:"query,omitempty"`
	Body    any               `yaml:"body,omitempty"`
}

type expectDoc struct {
	StatusCode int `yaml:"statusCode"`
}

// ConvertCommand converts a single curl command into a one-test suite.
func (c *Converter) ConvertCommand(curlCmd string) ([]byte, error) {
	return c.ConvertCommands([]string{curlCmd})
}

// ConvertFile converts a file of curl commands, one per line with
// backslash continuations. "-" reads standard input.
func (c *Converter) ConvertFile(path string) ([]byte, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}
		defer file.Close()
		r = file
	}

	commands, err := SplitCommands(r)
	if err != nil {
		return nil, err
	}
	if len(commands) == 0 {
		return nil, fmt.Errorf("no curl commands found")
	}
	return c.ConvertCommands(commands)
}

// SplitCommands reads curl commands, skipping blank lines and # comments.
func SplitCommands(r io.Reader) ([]string, error) {
	var commands []string
	var current strings.Builder
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if current.Len() == 0 && (line == "" || strings.HasPrefix(line, "#")) {
			continue
		}

		if strings.HasSuffix(line, "\\") {
			current.WriteString(strings.TrimSuffix(line, "\\"))
			current.WriteString(" ")
			continue
		}

		current.WriteString(line)
		commands = append(commands, current.String())
		current.Reset()
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read commands: %w", err)
	}
	if current.Len() > 0 {
		commands = append(commands, current.String())
	}
	return commands, nil
}

// ConvertCommands converts commands into one suite. When every URL shares
// the same scheme and host it becomes the suite baseUrl.
func (c *Converter) ConvertCommands(commands []string) ([]byte, error) {
	parsed := make([]*ParsedCurl, 0, len(commands))
	for i, cmd := range commands {
		p, err := c.Parse(cmd)
		if err != nil {
			return nil, fmt.Errorf("failed to convert command %d: %w", i+1, err)
		}
		parsed = append(parsed, p)
	}

	doc := suiteDoc{Name: c.suiteName, BaseURL: commonOrigin(parsed)}
	for _, p := range parsed {
		doc.Tests = append(doc.Tests, c.toTest(p, doc.BaseURL))
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode suite: %w", err)
	}
	return out, nil
}

// Parse parses a curl command string into a ParsedCurl struct.
func (c *Converter) Parse(curlCmd string) (*ParsedCurl, error) {
	parsed := &ParsedCurl{
		Method:  "GET",
		Headers: make(map[string]string),
	}

	tokens := tokenize(strings.TrimSpace(curlCmd))
	if len(tokens) > 0 && tokens[0] == "curl" {
		tokens = tokens[1:]
	}

	explicitMethod := false
	for i := 0; i < len(tokens); i++ {
		token := tokens[i]

		value := func() (string, error) {
			if i+1 >= len(tokens) {
				return "", fmt.Errorf("missing value for %s", token)
			}
			i++
			return tokens[i], nil
		}

		switch token {
		case "-X", "--request":
			v, err := value()
			if err != nil {
				return nil, err
			}
			parsed.Method = strings.ToUpper(v)
			explicitMethod = true

		case "-H", "--header":
			v, err := value()
			if err != nil {
				return nil, err
			}
			if key, val, ok := strings.Cut(v, ":"); ok {
				parsed.Headers[strings.TrimSpace(key)] = strings.TrimSpace(val)
			}

		case "-d", "--data", "--data-raw", "--data-binary", "--json":
			v, err := value()
			if err != nil {
				return nil, err
			}
			parsed.Body = v
			if token == "--json" {
				parsed.Headers["Content-Type"] = "application/json"
			}
			if !explicitMethod {
				parsed.Method = "POST"
			}

		case "-u", "--user":
			v, err := value()
			if err != nil {
				return nil, err
			}
			parsed.BasicAuth = v

		case "-A", "--user-agent":
			v, err := value()
			if err != nil {
				return nil, err
			}
			parsed.Headers["User-Agent"] = v

		case "-e", "--referer":
			v, err := value()
			if err != nil {
				return nil, err
			}
			parsed.Headers["Referer"] = v

		case "-b", "--cookie":
			v, err := value()
			if err != nil {
				return nil, err
			}
			parsed.Headers["Cookie"] = v

		case "-I", "--head":
			parsed.Method = "HEAD"
			explicitMethod = true

		default:
			if strings.HasPrefix(token, "-") {
				// unknown flags may take a value
				if i+1 < len(tokens) && !strings.HasPrefix(tokens[i+1], "-") && !isURL(tokens[i+1]) {
					i++
				}
				continue
			}
			if parsed.URL == "" && isURL(token) {
				parsed.URL = token
			}
		}
	}

	if parsed.URL == "" {
		return nil, fmt.Errorf("no URL found in curl command")
	}

	parsed.Name = generateName(parsed.URL, parsed.Method)
	return parsed, nil
}

func (c *Converter) toTest(p *ParsedCurl, baseURL string) testDoc {
	req := requestDoc{Method: p.Method, URL: p.URL}

	if u, err := url.Parse(p.URL); err == nil && u.Host != "" {
		if q := u.Query(); len(q) > 0 {
			req.Query = make(map[string]string, len(q))
			for k := range q {
				req.Query[k] = q.Get(k)
			}
			u.RawQuery = ""
		}
		if baseURL != "" {
			u.Scheme, u.Host, u.User = "", "", nil
			if u.Path == "" {
				u.Path = "/"
			}
		}
		req.URL = u.String()
	}

	if len(p.Headers) > 0 {
		req.Headers = p.Headers
	}
	if p.BasicAuth != "" {
		if req.Headers == nil {
			req.Headers = make(map[string]string)
		}
		req.Headers["Authorization"] = "Basic " + base64.StdEncoding.EncodeToString([]byte(p.BasicAuth))
	}
	if p.Body != "" {
		req.Body = decodeBody(p.Body)
	}

	return testDoc{Name: p.Name, Request: req, Expect: expectDoc{StatusCode: c.statusCode}}
}

// decodeBody keeps JSON objects and arrays structured; anything else is
// sent as a string.
func decodeBody(body string) any {
	trimmed := strings.TrimSpace(body)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		var v any
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return v
		}
	}
	return body
}

func commonOrigin(parsed []*ParsedCurl) string {
	origin := ""
	for _, p := range parsed {
		u, err := url.Parse(p.URL)
		if err != nil || u.Host == "" {
			return ""
		}
		o := u.Scheme + "://" + u.Host
		if origin == "" {
			origin = o
		} else if origin != o {
			return ""
		}
	}
	return origin
}

// tokenize splits a curl command into tokens, respecting quotes.
func tokenize(cmd string) []string {
	var tokens []string
	var current strings.Builder
	inSingleQuote := false
	inDoubleQuote := false
	escaped := false

	for _, r := range cmd {
		if escaped {
			current.WriteRune(r)
			escaped = false
			continue
		}

		switch r {
		case '\\':
			if inSingleQuote {
				current.WriteRune(r)
			} else {
				escaped = true
			}
		case '\'':
			if !inDoubleQuote {
				inSingleQuote = !inSingleQuote
			} else {
				current.WriteRune(r)
			}
		case '"':
			if !inSingleQuote {
				inDoubleQuote = !inDoubleQuote
			} else {
				current.WriteRune(r)
			}
		case ' ', '\t', '\n':
			if inSingleQuote || inDoubleQuote {
				current.WriteRune(r)
			} else if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "{{")
}

var (
	namePathPattern = regexp.MustCompile(`https?://[^/]+(/[^?#]*)?`)
	nameCleanup     = regexp.MustCompile(`[^a-z0-9]+`)
)

// generateName builds a test name like "get users_42" from method and path.
func generateName(rawURL, method string) string {
	path := "/"
	if m := namePathPattern.FindStringSubmatch(rawURL); len(m) > 1 && m[1] != "" {
		path = m[1]
	}

	path = strings.Trim(nameCleanup.ReplaceAllString(strings.ToLower(path), "_"), "_")
	if path == "" {
		path = "root"
	}
	return strings.ToLower(method) + " " + path
}
