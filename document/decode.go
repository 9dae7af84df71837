package document

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/aiopener/rac/racerrors"
	"go.yaml.in/yaml/v4"
)

const (
	// MaxAliasDepth bounds alias nesting when decoding YAML nodes.
	MaxAliasDepth = 64
	// MaxAliasNodes bounds the total number of nodes produced by alias
	// expansion in one document. Nodes outside aliases are bounded by the
	// input size and are not counted.
	MaxAliasNodes = 1 << 20
)

var yamlLineRe = regexp.MustCompile(`line (\d+)`)

// Parse decodes YAML (or JSON) text into a Value. Empty input yields Null.
// Mapping key order follows the source. Errors are *racerrors.ParseError.
func Parse(data []byte) (Value, error) {
	return ParseNamed("", data)
}

// ParseNamed is Parse with a source name recorded in errors.
func ParseNamed(name string, data []byte) (Value, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		pe := &racerrors.ParseError{Path: name, Message: "invalid YAML", Cause: err}
		if m := yamlLineRe.FindStringSubmatch(err.Error()); m != nil {
			pe.Line, _ = strconv.Atoi(m[1])
		}
		return Value{}, pe
	}
	v, err := FromNode(&root)
	if err != nil {
		var pe *racerrors.ParseError
		if errors.As(err, &pe) && pe.Path == "" {
			pe.Path = name
		}
		return Value{}, err
	}
	return v, nil
}

// FromNode converts a decoded yaml.Node tree into a Value. Alias expansion
// beyond MaxAliasNodes fails with *racerrors.ResourceLimitError.
func FromNode(n *yaml.Node) (Value, error) {
	d := &nodeDecoder{}
	return d.decode(n, 0)
}

// nodeDecoder carries the alias expansion count across one conversion.
type nodeDecoder struct {
	expanded int64
}

func (d *nodeDecoder) decode(n *yaml.Node, aliasDepth int) (Value, error) {
	// empty input leaves the root node zero
	if n == nil || n.Kind == 0 {
		return Null(), nil
	}
	if aliasDepth > 0 {
		d.expanded++
		if d.expanded > MaxAliasNodes {
			return Value{}, &racerrors.ResourceLimitError{
				ResourceType: "yaml alias nodes",
				Limit:        MaxAliasNodes,
				Actual:       d.expanded,
				Message:      fmt.Sprintf("alias expansion too large near line %d", n.Line),
			}
		}
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null(), nil
		}
		return d.decode(n.Content[0], aliasDepth)

	case yaml.AliasNode:
		if aliasDepth >= MaxAliasDepth {
			return Value{}, &racerrors.ParseError{Line: n.Line, Column: n.Column, Message: "alias expansion too deep"}
		}
		return d.decode(n.Alias, aliasDepth+1)

	case yaml.SequenceNode:
		items := make([]Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := d.decode(c, aliasDepth)
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
		return Value{kind: KindSequence, seq: items}, nil

	case yaml.MappingNode:
		return d.decodeMapping(n, aliasDepth)

	case yaml.ScalarNode:
		return fromScalar(n)

	default:
		return Value{}, &racerrors.ParseError{Line: n.Line, Column: n.Column, Message: fmt.Sprintf("unsupported node kind %d", n.Kind)}
	}
}

func (d *nodeDecoder) decodeMapping(n *yaml.Node, aliasDepth int) (Value, error) {
	m := NewMapping(len(n.Content) / 2)
	var merged []*Mapping
	for i := 0; i+1 < len(n.Content); i += 2 {
		kn, vn := n.Content[i], n.Content[i+1]
		if kn.Tag == "!!merge" {
			mv, err := d.decode(vn, aliasDepth)
			if err != nil {
				return Value{}, err
			}
			merged = append(merged, mergeSources(mv)...)
			continue
		}
		if kn.Kind != yaml.ScalarNode {
			return Value{}, &racerrors.ParseError{Line: kn.Line, Column: kn.Column, Message: "mapping keys must be scalars"}
		}
		v, err := d.decode(vn, aliasDepth)
		if err != nil {
			return Value{}, err
		}
		m.Set(kn.Value, v)
	}
	// explicit keys win over merged ones
	for _, src := range merged {
		src.Range(func(k string, v Value) bool {
			if !m.Has(k) {
				m.Set(k, v)
			}
			return true
		})
	}
	return FromMapping(m), nil
}

func mergeSources(v Value) []*Mapping {
	switch v.kind {
	case KindMapping:
		return []*Mapping{v.m}
	case KindSequence:
		var out []*Mapping
		for _, item := range v.seq {
			if item.kind == KindMapping {
				out = append(out, item.m)
			}
		}
		return out
	default:
		return nil
	}
}

func fromScalar(n *yaml.Node) (Value, error) {
	var raw any
	if err := n.Decode(&raw); err != nil {
		return Value{}, &racerrors.ParseError{Line: n.Line, Column: n.Column, Message: "invalid scalar", Cause: err}
	}
	switch x := raw.(type) {
	case nil:
		return Null(), nil
	case time.Time:
		// timestamps stay textual so output matches the source
		return String(n.Value), nil
	case []byte:
		return String(n.Value), nil
	default:
		return FromAny(x)
	}
}

// FromAny converts plain Go values into a Value. Supported inputs are nil,
// bool, all integer and float kinds, string, []any, []string, map[string]any
// (keys sorted for determinism) and Value itself.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return fromUint(uint64(t)), nil
	case uint8:
		return Int(int64(t)), nil
	case uint16:
		return Int(int64(t)), nil
	case uint32:
		return Int(int64(t)), nil
	case uint64:
		return fromUint(t), nil
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case string:
		return String(t), nil
	case []string:
		items := make([]Value, len(t))
		for i, s := range t {
			items[i] = String(s)
		}
		return Value{kind: KindSequence, seq: items}, nil
	case []any:
		items := make([]Value, len(t))
		for i, e := range t {
			v, err := FromAny(e)
			if err != nil {
				return Value{}, err
			}
			items[i] = v
		}
		return Value{kind: KindSequence, seq: items}, nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMapping(len(keys))
		for _, k := range keys {
			v, err := FromAny(t[k])
			if err != nil {
				return Value{}, err
			}
			m.Set(k, v)
		}
		return FromMapping(m), nil
	default:
		return Value{}, fmt.Errorf("document: unsupported type %T", x)
	}
}

// MustFromAny is FromAny that panics on unsupported input. Intended for
// tests and static literals.
func MustFromAny(x any) Value {
	v, err := FromAny(x)
	if err != nil {
		panic(err)
	}
	return v
}

// MustParse is Parse that panics on error. Intended for tests and static
// literals.
func MustParse(text string) Value {
	v, err := Parse([]byte(text))
	if err != nil {
		panic(err)
	}
	return v
}

func fromUint(u uint64) Value {
	if u > math.MaxInt64 {
		return Float(float64(u))
	}
	return Int(int64(u))
}
