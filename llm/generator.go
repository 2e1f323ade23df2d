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

package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/pkg/errors"

	"github.com/codemorph/codemorph/lang/log"
)

// ChatGenerator wraps a ChatModel as a Generator with per-attempt timeout
// and exponential backoff on transient failures.
type ChatGenerator struct {
	model     ChatModel
	sysPrompt string
	retries   int
	timeout   time.Duration
}

// NewChatGenerator builds a generator from a model config.
func NewChatGenerator(cfg ModelConfig, sysPrompt string) (*ChatGenerator, error) {
	m, err := NewChatModel(cfg)
	if err != nil {
		return nil, err
	}
	retries := cfg.Retries
	if retries == 0 {
		retries = 3
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 600 * time.Second
	}
	return &ChatGenerator{model: m, sysPrompt: sysPrompt, retries: retries, timeout: timeout}, nil
}

// Call implements Generator.
func (g *ChatGenerator) Call(ctx context.Context, input string) (string, error) {
	msgs := []*schema.Message{schema.UserMessage(input)}
	if g.sysPrompt != "" {
		msgs = append([]*schema.Message{schema.SystemMessage(g.sysPrompt)}, msgs...)
	}
	log.Debug("[User] %s", input)

	var lastErr error
	for attempt := 0; attempt <= g.retries; attempt++ {
		if attempt > 0 {
			log.Info("retrying model call (attempt %d/%d)", attempt+1, g.retries+1)
			// Exponential backoff: 1s, 2s, 4s... capped at 10s.
			waitTime := time.Duration(1<<uint(attempt-1)) * time.Second
			if waitTime > 10*time.Second {
				waitTime = 10 * time.Second
			}
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(waitTime):
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, g.timeout)
		out, err := g.model.Generate(attemptCtx, msgs)
		cancel()
		if err == nil {
			log.Debug("[Model] %s", out.Content)
			return out.Content, nil
		}
		lastErr = err

		if !isRetryable(err) {
			return "", errors.Wrap(err, "model call")
		}
		log.Info("retryable model error (attempt %d/%d): %v", attempt+1, g.retries+1, err)
	}
	return "", errors.Wrap(fmt.Errorf("failed after %d attempts: %w", g.retries+1, lastErr), "model call")
}

func isRetryable(err error) bool {
	s := err.Error()
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection reset") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "operation timed out") ||
		strings.Contains(s, "context deadline exceeded") ||
		strings.Contains(s, "read tcp") ||
		strings.Contains(s, "write tcp") ||
		strings.Contains(s, "429") ||
		strings.Contains(s, "overloaded")
}
