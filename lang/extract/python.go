// Copyright 2025 codemorph Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package extract

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/codemorph/codemorph/lang/ir"
)

// pythonSpec walks the tree-sitter-python grammar. Top-level functions and
// classes become units; decorated definitions are unwrapped.
type pythonSpec struct{}

func (pythonSpec) Language() *sitter.Language { return python.GetLanguage() }

func (pythonSpec) FileExts() []string { return []string{".py"} }

func (pythonSpec) PackageName(root *sitter.Node, content []byte) string {
	// Python has no in-file package declaration; the directory is the package.
	return ""
}

func (pythonSpec) Imports(root *sitter.Node, content []byte) []string {
	var imports []string
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		switch child.Type() {
		case "import_statement":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				c := child.NamedChild(j)
				switch c.Type() {
				case "dotted_name":
					imports = append(imports, c.Content(content))
				case "aliased_import":
					if name := c.ChildByFieldName("name"); name != nil {
						imports = append(imports, name.Content(content))
					}
				}
			}
		case "import_from_statement":
			if mod := child.ChildByFieldName("module_name"); mod != nil {
				imports = append(imports, mod.Content(content))
			}
		}
	}
	return imports
}

func (s pythonSpec) Units(root *sitter.Node, content []byte) []rawUnit {
	var units []rawUnit
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		node := child
		if node.Type() == "decorated_definition" {
			if def := node.ChildByFieldName("definition"); def != nil {
				node = def
			}
		}
		switch node.Type() {
		case "function_definition":
			units = append(units, pyFunction(child, node, content))
		case "class_definition":
			units = append(units, pyClass(child, node, content))
		case "ERROR":
			units = append(units, rawUnit{
				Kind: ir.KindFunction,
				Name: fmt.Sprintf("unparsed@%d", node.StartPoint().Row+1),
				Err:  fmt.Errorf("syntax error at line %d", node.StartPoint().Row+1),
			})
		}
	}
	return units
}

// pyFunction extracts a function unit. outer is the node spanning decorators,
// node is the function_definition itself.
func pyFunction(outer, node *sitter.Node, content []byte) rawUnit {
	name := node.ChildByFieldName("name")
	if name == nil {
		return rawUnit{
			Kind: ir.KindFunction,
			Name: fmt.Sprintf("unnamed@%d", node.StartPoint().Row+1),
			Err:  fmt.Errorf("function without a name at line %d", node.StartPoint().Row+1),
		}
	}
	nameText := name.Content(content)

	var params []ir.Param
	if p := node.ChildByFieldName("parameters"); p != nil {
		for j := 0; j < int(p.NamedChildCount()); j++ {
			params = append(params, pyParam(p.NamedChild(j), content))
		}
	}
	var results []ir.Param
	if rt := node.ChildByFieldName("return_type"); rt != nil {
		results = append(results, ir.Param{Type: ir.NormalizeType(ir.Python, rt.Content(content))})
	}

	return rawUnit{
		Kind:     ir.KindFunction,
		Name:     nameText,
		Exported: !strings.HasPrefix(nameText, "_"),
		Params:   params,
		Results:  results,
		Doc:      pyDocstring(node, content),
		Start:    outer.StartByte(),
		End:      outer.EndByte(),
		Line:     int(outer.StartPoint().Row) + 1,
	}
}

func pyClass(outer, node *sitter.Node, content []byte) rawUnit {
	name := node.ChildByFieldName("name")
	if name == nil {
		return rawUnit{
			Kind: ir.KindClass,
			Name: fmt.Sprintf("unnamed@%d", node.StartPoint().Row+1),
			Err:  fmt.Errorf("class without a name at line %d", node.StartPoint().Row+1),
		}
	}
	nameText := name.Content(content)
	return rawUnit{
		Kind:     ir.KindClass,
		Name:     nameText,
		Exported: !strings.HasPrefix(nameText, "_"),
		Doc:      pyDocstring(node, content),
		Start:    outer.StartByte(),
		End:      outer.EndByte(),
		Line:     int(outer.StartPoint().Row) + 1,
	}
}

func pyParam(node *sitter.Node, content []byte) ir.Param {
	switch node.Type() {
	case "identifier":
		return ir.Param{Name: node.Content(content), Type: "any"}
	case "typed_parameter", "typed_default_parameter":
		p := ir.Param{Type: "any"}
		for j := 0; j < int(node.NamedChildCount()); j++ {
			c := node.NamedChild(j)
			if c.Type() == "identifier" && p.Name == "" {
				p.Name = c.Content(content)
			}
		}
		if t := node.ChildByFieldName("type"); t != nil {
			p.Type = ir.NormalizeType(ir.Python, t.Content(content))
		}
		return p
	case "default_parameter":
		p := ir.Param{Type: "any"}
		if n := node.ChildByFieldName("name"); n != nil {
			p.Name = n.Content(content)
		}
		return p
	}
	return ir.Param{Name: node.Content(content), Type: "any"}
}

// pyDocstring returns the leading string literal of a body, the conventional
// docstring position.
func pyDocstring(node *sitter.Node, content []byte) string {
	body := node.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first.Type() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}
	if s := first.NamedChild(0); s.Type() == "string" {
		return strings.Trim(s.Content(content), `"'`)
	}
	return ""
}
