/*
Copyright Inferax-AI Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package tokenization

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"k8s.io/klog/v2"

	"github.com/inferax-ai/inferax/pkg/adapters"
	"github.com/inferax-ai/inferax/pkg/metrics"
)

const defaultMaxCachedTokenizers = 8

// TokenizerConfig selects one tokenizer backend. Exactly one field must be
// set.
type TokenizerConfig struct {
	Local  *LocalTokenizerConfig  `json:"local,omitempty"`
	Remote *RemoteTokenizerConfig `json:"remote,omitempty"`
}

func (c TokenizerConfig) build() (Tokenizer, error) {
	switch {
	case c.Local != nil && c.Remote != nil:
		return nil, ErrInvalidConfig{Message: "tokenizer config must not set both local and remote"}
	case c.Local != nil:
		return NewLocalTokenizer(*c.Local)
	case c.Remote != nil:
		return NewRemoteTokenizer(*c.Remote)
	default:
		return nil, ErrInvalidConfig{Message: "tokenizer config must set local or remote"}
	}
}

// GroupConfig configures a tokenizer Group.
type GroupConfig struct {
	// ModelName of the served base model, used as the metrics label.
	ModelName string `json:"model_name"`

	// Tokenizer is the base model's tokenizer.
	Tokenizer TokenizerConfig `json:"tokenizer"`

	// LoRATokenizers maps LoRA adapter names to dedicated tokenizer configs.
	// Adapters without an entry fall back to the base tokenizer.
	LoRATokenizers map[string]TokenizerConfig `json:"lora_tokenizers,omitempty"`

	// MaxCachedTokenizers bounds the LRU cache of constructed per-adapter
	// tokenizers. Evicted tokenizers are closed.
	MaxCachedTokenizers int `json:"max_cached_tokenizers,omitempty"`

	// Workers is the size of the async tokenization worker pool.
	Workers int `json:"workers,omitempty"`
}

// Group owns the tokenizers for a served model and its adapters. It is a
// shared, reentrant read path: concurrent Encode calls against the same or
// different adapters need no external synchronization.
type Group struct {
	config  GroupConfig
	base    Tokenizer
	cache   *lru.Cache[string, Tokenizer]
	pool    *Pool
	metrics *metrics.Metrics

	// mu single-flights per-adapter tokenizer construction on cache miss.
	mu sync.Mutex
}

// NewGroup builds the group and its base tokenizer. Run must be started
// before EncodeAsync is used.
func NewGroup(config GroupConfig) (*Group, error) {
	base, err := config.Tokenizer.build()
	if err != nil {
		return nil, err
	}

	size := config.MaxCachedTokenizers
	if size <= 0 {
		size = defaultMaxCachedTokenizers
	}

	cache, err := lru.NewWithEvict(size, func(name string, tok Tokenizer) {
		if closer, ok := tok.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				klog.Errorf("Error closing tokenizer for adapter %s: %v", name, err)
			}
		}
	})
	if err != nil {
		return nil, err
	}

	g := &Group{
		config:  config,
		base:    base,
		cache:   cache,
		metrics: metrics.Get(),
	}
	g.pool = newPool(config.Workers, g.Encode)

	return g, nil
}

// Run launches the async worker pool and blocks until the context is
// cancelled.
func (g *Group) Run(ctx context.Context) {
	g.pool.Run(ctx)
}

// TokenizerFor returns the tokenizer serving the given adapter, constructing
// and caching a dedicated one when the adapter has its own tokenizer config.
// A nil adapter, or one without a dedicated config, gets the base tokenizer.
func (g *Group) TokenizerFor(lora *adapters.LoRARequest) (Tokenizer, error) {
	if lora == nil {
		return g.base, nil
	}

	if tok, ok := g.cache.Get(lora.Name); ok {
		return tok, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if tok, ok := g.cache.Get(lora.Name); ok {
		return tok, nil
	}

	config, ok := g.config.LoRATokenizers[lora.Name]
	if !ok {
		klog.V(4).Infof("No dedicated tokenizer for LoRA adapter %s, using base tokenizer", lora.Name)
		return g.base, nil
	}

	tok, err := config.build()
	if err != nil {
		return nil, ErrTokenizationFailed{
			Message: "failed to create tokenizer for adapter " + lora.Name,
			Cause:   err,
		}
	}

	g.cache.Add(lora.Name, tok)
	klog.V(3).Infof("Created tokenizer for LoRA adapter %s", lora.Name)

	return tok, nil
}

// Encode converts text to token ids on the caller's goroutine.
func (g *Group) Encode(ctx context.Context, requestID, text string, lora *adapters.LoRARequest) ([]int, error) {
	tok, err := g.TokenizerFor(lora)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	ids, err := tok.Encode(ctx, text)
	if err != nil {
		return nil, err
	}

	g.metrics.TokenizeDuration.WithLabelValues(tokenizerSource(tok)).Observe(time.Since(start).Seconds())
	g.metrics.TokensTotal.WithLabelValues(g.config.ModelName).Add(float64(len(ids)))
	klog.V(4).Infof("Encoded %d tokens for request %s", len(ids), requestID)

	return ids, nil
}

// EncodeAsync routes the encode through the worker pool, parking the caller
// until the result arrives. Results are identical to Encode.
func (g *Group) EncodeAsync(_ context.Context, requestID, text string, lora *adapters.LoRARequest) ([]int, error) {
	return g.pool.Submit(requestID, text, lora)
}

// Close releases all cached tokenizers and the base tokenizer.
func (g *Group) Close() error {
	g.cache.Purge()
	if closer, ok := g.base.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

func tokenizerSource(tok Tokenizer) string {
	if _, ok := tok.(remoteTokenizer); ok {
		return metrics.SourceRemote
	}
	return metrics.SourceLocal
}
