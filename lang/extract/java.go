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
	"github.com/smacker/go-tree-sitter/java"

	"github.com/codemorph/codemorph/lang/ir"
)

// javaSpec walks the tree-sitter-java grammar. Units are top-level type
// declarations; their public method signatures are folded into the IR params
// via the class body scan below.
type javaSpec struct{}

func (javaSpec) Language() *sitter.Language { return java.GetLanguage() }

func (javaSpec) FileExts() []string { return []string{".java"} }

func (javaSpec) PackageName(root *sitter.Node, content []byte) string {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child.Type() == "package_declaration" {
			for j := 0; j < int(child.NamedChildCount()); j++ {
				c := child.NamedChild(j)
				if c.Type() == "scoped_identifier" || c.Type() == "identifier" {
					return c.Content(content)
				}
			}
		}
	}
	return ""
}

func (javaSpec) Imports(root *sitter.Node, content []byte) []string {
	var imports []string
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child.Type() != "import_declaration" {
			continue
		}
		text := child.Content(content)
		text = strings.TrimPrefix(text, "import")
		text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), ";"))
		text = strings.TrimSpace(strings.TrimPrefix(text, "static"))
		if text != "" {
			imports = append(imports, text)
		}
	}
	return imports
}

func (s javaSpec) Units(root *sitter.Node, content []byte) []rawUnit {
	var units []rawUnit
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		var kind ir.UnitKind
		switch child.Type() {
		case "class_declaration":
			kind = ir.KindClass
		case "interface_declaration":
			kind = ir.KindInterface
		case "enum_declaration":
			kind = ir.KindEnum
		case "ERROR":
			units = append(units, rawUnit{
				Kind: ir.KindClass,
				Name: fmt.Sprintf("unparsed@%d", child.StartPoint().Row+1),
				Err:  fmt.Errorf("syntax error at line %d", child.StartPoint().Row+1),
			})
			continue
		default:
			continue
		}

		nameNode := child.ChildByFieldName("name")
		if nameNode == nil {
			units = append(units, rawUnit{
				Kind: kind,
				Name: fmt.Sprintf("unnamed@%d", child.StartPoint().Row+1),
				Err:  fmt.Errorf("%s without a name at line %d", child.Type(), child.StartPoint().Row+1),
			})
			continue
		}

		units = append(units, rawUnit{
			Kind:     kind,
			Name:     nameNode.Content(content),
			Exported: javaModifiersPublic(child, content),
			Params:   javaPublicMethods(child, content),
			Doc:      javaDoc(child, content),
			Start:    child.StartByte(),
			End:      child.EndByte(),
			Line:     int(child.StartPoint().Row) + 1,
		})
	}
	return units
}

func javaModifiersPublic(node *sitter.Node, content []byte) bool {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		c := node.NamedChild(i)
		if c.Type() == "modifiers" {
			return strings.Contains(c.Content(content), "public")
		}
	}
	// Package-private types still cross file boundaries within the package.
	return false
}

// javaPublicMethods records each public method of a type as a normalized
// param entry "name(sig)->ret" so signature preservation can be checked on the
// translated type without keeping a second structure.
func javaPublicMethods(node *sitter.Node, content []byte) []ir.Param {
	body := node.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	var out []ir.Param
	for i := 0; i < int(body.NamedChildCount()); i++ {
		m := body.NamedChild(i)
		if m.Type() != "method_declaration" {
			continue
		}
		if !javaModifiersPublic(m, content) {
			continue
		}
		name := m.ChildByFieldName("name")
		if name == nil {
			continue
		}
		var paramTypes []string
		if params := m.ChildByFieldName("parameters"); params != nil {
			for j := 0; j < int(params.NamedChildCount()); j++ {
				p := params.NamedChild(j)
				if t := p.ChildByFieldName("type"); t != nil {
					paramTypes = append(paramTypes, ir.NormalizeType(ir.Java, t.Content(content)))
				}
			}
		}
		ret := "void"
		if t := m.ChildByFieldName("type"); t != nil {
			ret = ir.NormalizeType(ir.Java, t.Content(content))
		}
		out = append(out, ir.Param{
			Name: name.Content(content),
			Type: "(" + strings.Join(paramTypes, ",") + ")->" + ret,
		})
	}
	return out
}

func javaDoc(node *sitter.Node, content []byte) string {
	prev := node.PrevNamedSibling()
	if prev != nil && (prev.Type() == "block_comment" || prev.Type() == "line_comment") {
		return prev.Content(content)
	}
	return ""
}
