package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const mergeTag = "!!merge"

type yamlConverter struct {
	path     []string
	inflight map[*yaml.Node]struct{}
}

func decodeYAML(data []byte) (any, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &ParseError{Err: err}
	}
	if root.Kind == 0 {
		return nil, &ParseError{Err: errors.New("empty document")}
	}
	c := &yamlConverter{inflight: map[*yaml.Node]struct{}{}}
	return c.convert(&root)
}

func (c *yamlConverter) fail(err error) error {
	return &ParseError{Path: JoinPath(c.path), Err: err}
}

func (c *yamlConverter) convert(n *yaml.Node) (any, error) {
	if _, busy := c.inflight[n]; busy {
		return nil, c.fail(fmt.Errorf("line %d: alias refers to its own ancestor", n.Line))
	}
	c.inflight[n] = struct{}{}
	defer delete(c.inflight, n)

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return c.convert(n.Content[0])
	case yaml.AliasNode:
		return c.convert(n.Alias)
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for i, item := range n.Content {
			c.path = append(c.path, indexSegment(i))
			v, err := c.convert(item)
			if err != nil {
				return nil, err
			}
			c.path = c.path[:len(c.path)-1]
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		return c.mapping(n)
	case yaml.ScalarNode:
		return c.scalar(n)
	}
	return nil, c.fail(fmt.Errorf("line %d: unsupported node kind %d", n.Line, n.Kind))
}

func (c *yamlConverter) mapping(n *yaml.Node) (any, error) {
	out := make(map[string]any, len(n.Content)/2)
	var merges []*yaml.Node

	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode, valNode := n.Content[i], n.Content[i+1]
		if keyNode.Kind == yaml.ScalarNode && keyNode.ShortTag() == mergeTag {
			merges = append(merges, valNode)
			continue
		}
		key, err := mappingKey(keyNode)
		if err != nil {
			return nil, c.fail(err)
		}
		c.path = append(c.path, key)
		v, err := c.convert(valNode)
		if err != nil {
			return nil, err
		}
		c.path = c.path[:len(c.path)-1]
		out[key] = v
	}

	// explicit keys win over merged ones; earlier merge sources win over later
	for _, m := range merges {
		sources := []*yaml.Node{m}
		if resolveAlias(m).Kind == yaml.SequenceNode {
			sources = resolveAlias(m).Content
		}
		for _, src := range sources {
			v, err := c.convert(src)
			if err != nil {
				return nil, err
			}
			merged, ok := v.(map[string]any)
			if !ok {
				return nil, c.fail(fmt.Errorf("line %d: merge value must be a mapping", src.Line))
			}
			for k, mv := range merged {
				if _, exists := out[k]; !exists {
					out[k] = mv
				}
			}
		}
	}
	return out, nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

// mappingKey stringifies a key: strings as-is, numbers and booleans by their
// value, null as "null" and collections by their YAML text.
func mappingKey(k *yaml.Node) (string, error) {
	k = resolveAlias(k)
	if k.Kind != yaml.ScalarNode {
		text, err := yaml.Marshal(k)
		if err != nil {
			return "", fmt.Errorf("line %d: cannot serialize mapping key: %w", k.Line, err)
		}
		return strings.TrimSpace(string(text)), nil
	}
	switch k.ShortTag() {
	case "!!null":
		return "null", nil
	case "!!bool":
		var b bool
		if err := k.Decode(&b); err != nil {
			return k.Value, nil
		}
		return strconv.FormatBool(b), nil
	case "!!int":
		var i int64
		if err := k.Decode(&i); err != nil {
			return k.Value, nil
		}
		return strconv.FormatInt(i, 10), nil
	case "!!float":
		var f float64
		if err := k.Decode(&f); err != nil {
			return k.Value, nil
		}
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	}
	return k.Value, nil
}

func (c *yamlConverter) scalar(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, c.fail(fmt.Errorf("line %d: %w", n.Line, err))
		}
		return b, nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return nil, c.fail(fmt.Errorf("line %d: %w: %s", n.Line, ErrOverflow, n.Value))
		}
		return json.Number(strconv.FormatInt(i, 10)), nil
	case "!!float":
		// plain digits only resolve as float once they overflow the integer types
		if n.Style&yaml.TaggedStyle == 0 && isIntegerLiteral(n.Value) {
			return nil, c.fail(fmt.Errorf("line %d: %w: %s", n.Line, ErrOverflow, n.Value))
		}
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, c.fail(fmt.Errorf("line %d: %w", n.Line, err))
		}
		if math.IsNaN(f) {
			return nil, nil
		}
		return json.Number(formatFloat(clampFinite(f))), nil
	}
	return n.Value, nil
}

func clampFinite(f float64) float64 {
	return max(-math.MaxFloat64, min(f, math.MaxFloat64))
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}
