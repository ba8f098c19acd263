package builtin

import (
	"math"
	"math/rand/v2"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	// DefaultStringLength is used by random.string when no usable length is given.
	DefaultStringLength = 10
	// MaxStringLength caps random.string; longer requests are truncated to it.
	MaxStringLength = 4096

	alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Func generates a value from the raw argument list, e.g. "(5)" for
// random.string(5). Returning false means the call is not recognised and
// the token should be resolved as a plain variable instead.
type Func func(args string) (string, bool)

type Registry struct {
	funcs map[string]Func
	names []string
}

func NewRegistry() *Registry {
	r := &Registry{
		funcs: make(map[string]Func),
	}
	r.registerDefaults()
	return r
}

func (r *Registry) registerDefaults() {
	r.Register("random.string", funcRandomString)
	r.Register("random.number", funcRandomNumber)
	r.Register("random.uuid", funcUUID)
}

func (r *Registry) Register(name string, fn Func) {
	if _, ok := r.funcs[name]; !ok {
		r.names = append(r.names, name)
		// longest names first so that a registered prefix never shadows a longer name
		sort.SliceStable(r.names, func(i, j int) bool {
			return len(r.names[i]) > len(r.names[j])
		})
	}
	r.funcs[name] = fn
}

// Call evaluates expr when it names a registered generator, with or
// without an argument list.
func (r *Registry) Call(expr string) (string, bool) {
	for _, name := range r.names {
		if !strings.HasPrefix(expr, name) {
			continue
		}
		args := strings.TrimSpace(expr[len(name):])
		if args != "" && !strings.HasPrefix(args, "(") {
			continue
		}
		return r.funcs[name](args)
	}
	return "", false
}

var (
	lengthArgPattern = regexp.MustCompile(`^\(\s*(\d+)\s*\)$`)
	rangeArgPattern  = regexp.MustCompile(`^\(\s*(-?\d+)\s*,\s*(-?\d+)\s*\)$`)
)

func funcRandomString(args string) (string, bool) {
	length := DefaultStringLength
	if m := lengthArgPattern.FindStringSubmatch(args); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			length = n
		}
	}
	return RandomString(length), true
}

func funcRandomNumber(args string) (string, bool) {
	m := rangeArgPattern.FindStringSubmatch(args)
	if m == nil {
		return "", false
	}
	lo, err := strconv.Atoi(m[1])
	if err != nil {
		return "", false
	}
	hi, err := strconv.Atoi(m[2])
	if err != nil {
		return "", false
	}
	return strconv.Itoa(RandomInt(lo, hi)), true
}

func funcUUID(_ string) (string, bool) {
	return uuid.New().String(), true
}

// RandomString returns length random alphanumeric characters, at most
// MaxStringLength.
func RandomString(length int) string {
	if length <= 0 {
		return ""
	}
	length = min(length, MaxStringLength)
	result := make([]byte, length)
	for i := range result {
		result[i] = alphanumeric[rand.IntN(len(alphanumeric))]
	}
	return string(result)
}

// RandomInt returns a random integer in [lo, hi]. Bounds are swapped
// when given in the wrong order.
func RandomInt(lo, hi int) int {
	if lo > hi {
		lo, hi = hi, lo
	}
	// the span of [MinInt, MaxInt] does not fit an int
	span := uint64(hi) - uint64(lo)
	if span == math.MaxUint64 {
		return int(rand.Uint64())
	}
	return int(uint64(lo) + rand.Uint64N(span+1))
}
