package env

import (
	"sync"

	"github.com/abdul-hamid-achik/apiflow/packages/value"
)

// Layer names a level of the variable namespace.
type Layer string

const (
	LayerSaved  Layer = "saved"
	LayerYAML   Layer = "yaml"
	LayerCLI    Layer = "cliEnv"
	LayerDotenv Layer = "dotenvEnv"
)

// resolutionOrder is the lookup precedence for plain variable references.
var resolutionOrder = []Layer{LayerSaved, LayerYAML, LayerCLI, LayerDotenv}

// Context is the layered variable namespace of one suite run.
//
// The yaml, cliEnv and dotenvEnv layers are filled before the first test
// runs. The saved layer starts empty and collects values captured with
// saveAs while the suite executes. A Context must not be shared between
// suite files; use Clone to derive one per file.
type Context struct {
	mu     sync.RWMutex
	layers map[Layer]map[string]value.Value
}

func NewContext() *Context {
	c := &Context{
		layers: make(map[Layer]map[string]value.Value, len(resolutionOrder)),
	}
	for _, l := range resolutionOrder {
		c.layers[l] = make(map[string]value.Value)
	}
	return c
}

// SetLayer replaces the contents of one layer.
func (c *Context) SetLayer(layer Layer, vars map[string]value.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	dst := make(map[string]value.Value, len(vars))
	for k, v := range vars {
		dst[k] = v
	}
	c.layers[layer] = dst
}

// SetStrings replaces one layer with plain string values, as supplied by
// the command line or an env file.
func (c *Context) SetStrings(layer Layer, vars map[string]string) {
	c.SetLayer(layer, StringLayer(vars))
}

// SetMapping replaces one layer with the entries of a mapping value, as
// declared in a suite's variables block. Non-mapping values clear the layer.
func (c *Context) SetMapping(layer Layer, m value.Value) {
	vars := make(map[string]value.Value)
	if mm := m.Map(); mm != nil {
		for _, k := range mm.Keys() {
			v, _ := mm.Get(k)
			vars[k] = v
		}
	}
	c.SetLayer(layer, vars)
}

// Save merges captured values into the saved layer. Later writes win.
func (c *Context) Save(vars map[string]value.Value) {
	if len(vars) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range vars {
		c.layers[LayerSaved][k] = v
	}
}

// Saved returns a copy of the saved layer.
func (c *Context) Saved() map[string]value.Value {
	return c.Layer(LayerSaved)
}

// Layer returns a copy of one layer.
func (c *Context) Layer(layer Layer) map[string]value.Value {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]value.Value, len(c.layers[layer]))
	for k, v := range c.layers[layer] {
		out[k] = v
	}
	return out
}

// Lookup resolves name through saved, yaml, cliEnv and dotenvEnv in that
// order. The first layer holding a defined value wins.
func (c *Context) Lookup(name string) (value.Value, bool) {
	v, _, ok := c.LookupLayer(name)
	return v, ok
}

// LookupLayer is Lookup that also reports which layer answered.
func (c *Context) LookupLayer(name string) (value.Value, Layer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, l := range resolutionOrder {
		if v, ok := c.layers[l][name]; ok && !v.IsUndefined() {
			return v, l, true
		}
	}
	return value.Undefined, "", false
}

// Clone returns an independent copy of all layers.
func (c *Context) Clone() *Context {
	c.mu.RLock()
	defer c.mu.RUnlock()
	clone := NewContext()
	for l, vars := range c.layers {
		for k, v := range vars {
			clone.layers[l][k] = v
		}
	}
	return clone
}

// StringLayer converts string pairs into layer values.
func StringLayer(vars map[string]string) map[string]value.Value {
	out := make(map[string]value.Value, len(vars))
	for k, v := range vars {
		out[k] = value.NewString(v)
	}
	return out
}
