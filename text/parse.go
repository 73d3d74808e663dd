package text

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"
	"github.com/goccy/go-yaml/token"
	"github.com/signadot/objcodec/debug"
	"github.com/signadot/objcodec/descriptor"
	"github.com/signadot/objcodec/tree"
)

// Parse reads the first YAML document of data into a tree whose nodes
// carry their source positions. An empty document is a null node.
func Parse(data []byte) (*tree.Node, error) {
	f, err := parser.ParseBytes(data, 0)
	if err != nil {
		return nil, &descriptor.MalformedInputError{Context: "yaml", Err: err}
	}
	if len(f.Docs) == 0 || f.Docs[0] == nil || f.Docs[0].Body == nil {
		return tree.Null(), nil
	}
	p := &astConv{anchors: map[string]ast.Node{}}
	n, err := p.node(f.Docs[0].Body)
	if err != nil {
		return nil, err
	}
	if debug.Text() {
		debug.Logf("text: parsed %s at %s\n", n.Type, n.Pos)
	}
	return n, nil
}

type astConv struct {
	anchors map[string]ast.Node
	depth   int
}

const maxAliasDepth = 64

func position(n ast.Node) tree.Pos {
	tk := n.GetToken()
	if tk == nil || tk.Position == nil {
		return tree.Pos{}
	}
	return tree.Pos{Line: tk.Position.Line, Column: tk.Position.Column}
}

func (p *astConv) node(an ast.Node) (*tree.Node, error) {
	pos := position(an)
	var res *tree.Node
	switch n := an.(type) {
	case *ast.NullNode:
		res = tree.Null()
	case *ast.StringNode:
		res = tree.FromString(n.Value)
	case *ast.LiteralNode:
		res = tree.FromString(n.Value.Value)
	case *ast.BoolNode:
		res = tree.FromBool(n.Value)
	case *ast.IntegerNode:
		switch x := n.Value.(type) {
		case int64:
			res = tree.FromInt(x)
		case uint64:
			res = tree.FromUint(x)
		case int:
			res = tree.FromInt(int64(x))
		default:
			return nil, descriptor.WithPos(&descriptor.MalformedInputError{Context: fmt.Sprintf("integer %v", x)}, pos)
		}
		res.Number = n.GetToken().Value
	case *ast.FloatNode:
		res = tree.FromFloat(n.Value)
		res.Number = n.GetToken().Value
	case *ast.InfinityNode:
		res = tree.FromFloat(n.Value)
	case *ast.NanNode:
		res = tree.FromFloat(math.NaN())
	case *ast.TagNode:
		inner, err := p.node(n.Value)
		if err != nil {
			return nil, err
		}
		if tag := n.Start.Value; len(tag) > 1 && tag[0] == '!' && tag[1] != '!' {
			inner.Tag = tag[1:]
		}
		return inner, nil
	case *ast.AnchorNode:
		p.anchors[n.Name.GetToken().Value] = n.Value
		return p.node(n.Value)
	case *ast.AliasNode:
		name := n.Value.GetToken().Value
		target, ok := p.anchors[name]
		if !ok {
			return nil, descriptor.WithPos(&descriptor.MalformedInputError{Context: fmt.Sprintf("unknown alias *%s", name)}, pos)
		}
		if p.depth++; p.depth > maxAliasDepth {
			return nil, descriptor.WithPos(&descriptor.MalformedInputError{Context: "alias nesting too deep"}, pos)
		}
		defer func() { p.depth-- }()
		res, err := p.node(target)
		if err != nil {
			return nil, err
		}
		res.Pos = pos
		return res, nil
	case *ast.SequenceNode:
		res = &tree.Node{Type: tree.ArrayType}
		for _, v := range n.Values {
			c, err := p.node(v)
			if err != nil {
				return nil, err
			}
			res.Append(c)
		}
	case *ast.MappingNode:
		res = tree.NewObject()
		for _, mv := range n.Values {
			if err := p.pair(res, mv); err != nil {
				return nil, err
			}
		}
	case *ast.MappingValueNode:
		res = tree.NewObject()
		if err := p.pair(res, n); err != nil {
			return nil, err
		}
	case *ast.CommentGroupNode:
		res = tree.Null()
	default:
		return nil, descriptor.WithPos(&descriptor.MalformedInputError{Context: fmt.Sprintf("unsupported yaml node %s", an.Type())}, pos)
	}
	res.Pos = pos
	return res, nil
}

func (p *astConv) pair(obj *tree.Node, mv *ast.MappingValueNode) error {
	v, err := p.node(mv.Value)
	if err != nil {
		return err
	}
	var kn ast.Node = mv.Key
	if _, ok := kn.(*ast.MergeKeyNode); ok {
		if v.Type != tree.ObjectType {
			return descriptor.WithPos(&descriptor.MalformedInputError{Context: "merge key needs a mapping"}, v.Pos)
		}
		for i, f := range v.Fields {
			if obj.Get(f.String) == nil {
				obj.Set(f.String, v.Values[i])
			}
		}
		return nil
	}
	if mk, ok := kn.(*ast.MappingKeyNode); ok {
		kn = mk.Value
	}
	k, err := p.node(kn)
	if err != nil {
		return err
	}
	key, err := keyString(k)
	if err != nil {
		return err
	}
	if obj.Get(key) != nil {
		return descriptor.WithPos(&descriptor.MalformedInputError{Context: fmt.Sprintf("duplicate key %q", key)}, k.Pos)
	}
	obj.Set(key, v)
	obj.Fields[len(obj.Fields)-1].Pos = k.Pos
	return nil
}

func keyString(k *tree.Node) (string, error) {
	switch k.Type {
	case tree.StringType:
		return k.String, nil
	case tree.NumberType:
		return k.Number, nil
	case tree.BoolType:
		return strconv.FormatBool(k.Bool), nil
	case tree.NullType:
		return "null", nil
	}
	return "", descriptor.WithPos(&descriptor.MalformedInputError{Context: fmt.Sprintf("%s used as a key", k.Type)}, k.Pos)
}

// Emit renders n as YAML, in flow style if flow is set.
func Emit(n *tree.Node, flow bool) ([]byte, error) {
	v := toYAML(n)
	if flow {
		return yaml.MarshalWithOptions(v, yaml.Flow(true))
	}
	return yaml.Marshal(v)
}

func toYAML(n *tree.Node) any {
	if n == nil {
		return nil
	}
	switch n.Type {
	case tree.ObjectType:
		ms := make(yaml.MapSlice, len(n.Fields))
		for i, f := range n.Fields {
			ms[i] = yaml.MapItem{Key: f.String, Value: toYAML(n.Values[i])}
		}
		return ms
	case tree.ArrayType:
		res := make([]any, len(n.Values))
		for i, v := range n.Values {
			res[i] = toYAML(v)
		}
		return res
	}
	if n.Type == tree.StringType && !plainString(n.String) {
		return quoted(n.String)
	}
	return n.Scalar()
}

// quoted is a string written in double quotes.
type quoted string

func (q quoted) MarshalYAML() ([]byte, error) {
	return []byte(strconv.Quote(string(q))), nil
}

// plainString reports whether s reads back as the same string when
// written unquoted in block or flow style. Strings such as .inf, ~ or
// "a: b" do not.
func plainString(s string) bool {
	if strings.ContainsAny(s, ",[]{}\"\n") {
		return false
	}
	f, err := parser.ParseBytes([]byte(s), 0)
	if err != nil || len(f.Docs) != 1 || f.Docs[0] == nil {
		return false
	}
	n, ok := f.Docs[0].Body.(*ast.StringNode)
	return ok && n.Value == s && n.Token.Type == token.StringType
}
