/**
 * Copyright 2025 codemorph Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package translate

import (
	"testing"

	"github.com/codemorph/codemorph/lang/ir"
)

func TestConvertSymbol(t *testing.T) {
	cases := []struct {
		target   ir.Language
		kind     ir.UnitKind
		name     string
		exported bool
		want     string
	}{
		{ir.Golang, ir.KindFunction, "findUser", true, "FindUser"},
		{ir.Golang, ir.KindFunction, "find_user", false, "findUser"},
		{ir.Golang, ir.KindClass, "user_store", true, "UserStore"},
		{ir.Rust, ir.KindFunction, "findUser", true, "find_user"},
		{ir.Rust, ir.KindClass, "user_store", true, "UserStore"},
		{ir.Python, ir.KindFunction, "findUser", true, "find_user"},
		{ir.Python, ir.KindClass, "user_store", true, "UserStore"},
		{ir.Java, ir.KindFunction, "find_user", true, "findUser"},
		{ir.Java, ir.KindClass, "user_store", true, "UserStore"},
	}
	for _, c := range cases {
		if got := ConvertSymbol(c.target, c.kind, c.name, c.exported); got != c.want {
			t.Errorf("ConvertSymbol(%s, %s, %q, %v) = %q, want %q",
				c.target, c.kind, c.name, c.exported, got, c.want)
		}
	}
}

func TestConvertFileName(t *testing.T) {
	cases := []struct {
		target ir.Language
		base   string
		want   string
	}{
		{ir.Golang, "UserService.java", "user_service.go"},
		{ir.Rust, "UserService.java", "user_service.rs"},
		{ir.Python, "UserService.java", "user_service.py"},
		{ir.Java, "user_service.py", "UserService.java"},
		{ir.TypeScript, "user_service.py", "userService.ts"},
	}
	for _, c := range cases {
		if got := ConvertFileName(c.target, c.base); got != c.want {
			t.Errorf("ConvertFileName(%s, %q) = %q, want %q", c.target, c.base, got, c.want)
		}
	}
}
