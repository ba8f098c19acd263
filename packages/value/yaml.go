package value

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// MaxYAMLNodes bounds the number of nodes FromYAML builds, counting every
// expansion of an alias.
const MaxYAMLNodes = 1 << 20

// ErrYAMLTooLarge is returned when a document expands past MaxYAMLNodes.
var ErrYAMLTooLarge = errors.New("yaml document too large after alias expansion")

// FromYAML converts a decoded YAML node tree into a Value, keeping the
// key order of mappings. Tags other than null, bool, int, float, str,
// seq and map decode as strings.
func FromYAML(node *yaml.Node) (Value, error) {
	d := &yamlDecoder{budget: MaxYAMLNodes}
	return d.decode(node)
}

type yamlDecoder struct {
	budget int
}

func (d *yamlDecoder) decode(node *yaml.Node) (Value, error) {
	if node == nil {
		return Undefined, nil
	}
	d.budget--
	if d.budget < 0 {
		return Undefined, fmt.Errorf("line %d: %w", node.Line, ErrYAMLTooLarge)
	}

	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return Null, nil
		}
		return d.decode(node.Content[0])
	case yaml.AliasNode:
		return d.decode(node.Alias)
	case yaml.SequenceNode:
		items := make([]Value, 0, len(node.Content))
		for _, child := range node.Content {
			item, err := d.decode(child)
			if err != nil {
				return Undefined, err
			}
			items = append(items, item)
		}
		return NewSequence(items...), nil
	case yaml.MappingNode:
		m := NewMap()
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode, valNode := node.Content[i], node.Content[i+1]
			if keyNode.Tag == "!!merge" {
				if err := d.mergeInto(m, valNode); err != nil {
					return Undefined, err
				}
				continue
			}
			val, err := d.decode(valNode)
			if err != nil {
				return Undefined, err
			}
			m.Set(keyNode.Value, val)
		}
		return NewMapping(m), nil
	case yaml.ScalarNode:
		return scalarFromYAML(node)
	default:
		return Undefined, fmt.Errorf("line %d: unsupported yaml node kind %d", node.Line, node.Kind)
	}
}

// mergeInto applies a YAML merge key (<<) without overriding keys that
// are already present.
func (d *yamlDecoder) mergeInto(m *Map, node *yaml.Node) error {
	src, err := d.decode(node)
	if err != nil {
		return err
	}
	sources := []Value{src}
	if src.Kind() == KindSequence {
		sources = src.Items()
	}
	for _, s := range sources {
		sm := s.Map()
		if sm == nil {
			return fmt.Errorf("line %d: merge value must be a mapping", node.Line)
		}
		for _, k := range sm.Keys() {
			if !m.Has(k) {
				v, _ := sm.Get(k)
				m.Set(k, v)
			}
		}
	}
	return nil
}

func scalarFromYAML(node *yaml.Node) (Value, error) {
	switch node.ShortTag() {
	case "!!null":
		return Null, nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return Undefined, err
		}
		return NewBool(b), nil
	case "!!int":
		var n int64
		if err := node.Decode(&n); err != nil {
			var f float64
			if ferr := node.Decode(&f); ferr != nil {
				return Undefined, err
			}
			return NewNumber(f), nil
		}
		return NewNumber(float64(n)), nil
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return Undefined, err
		}
		return NewNumber(f), nil
	default:
		return NewString(node.Value), nil
	}
}
