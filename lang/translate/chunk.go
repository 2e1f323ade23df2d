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

import "strings"

// splitChunks splits code into ordered chunks of at most maxBytes each,
// breaking only on line boundaries. The split is lossless:
// strings.Join(splitChunks(code, n), "") == code for any n.
func splitChunks(code string, maxBytes int) []string {
	if maxBytes <= 0 || len(code) <= maxBytes {
		return []string{code}
	}
	lines := strings.SplitAfter(code, "\n")
	var chunks []string
	var current strings.Builder
	for _, line := range lines {
		// A single oversized line still goes out whole; breaking inside a
		// line would corrupt string literals.
		if current.Len() > 0 && current.Len()+len(line) > maxBytes {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	if len(chunks) == 0 {
		return []string{code}
	}
	return chunks
}

// reassemble restores chunk outputs to one unit in original order.
func reassemble(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	var sb strings.Builder
	for i, p := range parts {
		if i > 0 && !strings.HasSuffix(parts[i-1], "\n") && !strings.HasPrefix(p, "\n") {
			sb.WriteString("\n")
		}
		sb.WriteString(p)
	}
	return sb.String()
}
