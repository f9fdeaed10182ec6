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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/ptr"

	"github.com/inferax-ai/inferax/pkg/adapters"
)

func localGroupConfig() GroupConfig {
	return GroupConfig{
		ModelName: "test-model",
		Tokenizer: TokenizerConfig{
			Local: &LocalTokenizerConfig{
				SpecialTokens: SpecialTokensConfig{BOSTokenID: ptr.To(1)},
			},
		},
	}
}

func TestTokenizerConfigBuild(t *testing.T) {
	tests := []struct {
		name    string
		config  TokenizerConfig
		wantErr bool
	}{
		{
			name:   "local",
			config: TokenizerConfig{Local: &LocalTokenizerConfig{}},
		},
		{
			name:   "remote",
			config: TokenizerConfig{Remote: &RemoteTokenizerConfig{Endpoint: "http://localhost:8000"}},
		},
		{
			name:    "neither",
			config:  TokenizerConfig{},
			wantErr: true,
		},
		{
			name: "both",
			config: TokenizerConfig{
				Local:  &LocalTokenizerConfig{},
				Remote: &RemoteTokenizerConfig{Endpoint: "http://localhost:8000"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := tt.config.build()
			if tt.wantErr {
				var target ErrInvalidConfig
				require.ErrorAs(t, err, &target)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, tok)
		})
	}
}

func TestGroupTokenizerFor(t *testing.T) {
	config := localGroupConfig()
	config.LoRATokenizers = map[string]TokenizerConfig{
		"adapter-1": {
			Local: &LocalTokenizerConfig{
				SpecialTokens: SpecialTokensConfig{BOSTokenID: ptr.To(7)},
			},
		},
	}

	group, err := NewGroup(config)
	require.NoError(t, err)
	defer group.Close()

	base, err := group.TokenizerFor(nil)
	require.NoError(t, err)

	// Adapters without a dedicated config fall back to the base tokenizer.
	unknown, err := group.TokenizerFor(&adapters.LoRARequest{Name: "other", ID: 2})
	require.NoError(t, err)
	assert.Same(t, base, unknown)

	dedicated, err := group.TokenizerFor(&adapters.LoRARequest{Name: "adapter-1", ID: 1})
	require.NoError(t, err)
	assert.NotSame(t, base, dedicated)
	require.NotNil(t, dedicated.BOSTokenID())
	assert.Equal(t, 7, *dedicated.BOSTokenID())

	// Second lookup is served from the cache.
	again, err := group.TokenizerFor(&adapters.LoRARequest{Name: "adapter-1", ID: 1})
	require.NoError(t, err)
	assert.Same(t, dedicated, again)
}

func TestGroupEncode(t *testing.T) {
	group, err := NewGroup(localGroupConfig())
	require.NoError(t, err)
	defer group.Close()

	tokens, err := group.Encode(context.Background(), "req-1", "hello world", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, tokens)

	again, err := group.Encode(context.Background(), "req-1", "hello world", nil)
	require.NoError(t, err)
	assert.Equal(t, tokens, again)
}

func TestGroupEncodeAsyncMatchesEncode(t *testing.T) {
	defer verifyNoLeaks(t)

	config := localGroupConfig()
	config.Workers = 2

	group, err := NewGroup(config)
	require.NoError(t, err)
	defer group.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		group.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	blocking, err := group.Encode(context.Background(), "req-1", "hello world", nil)
	require.NoError(t, err)

	async, err := group.EncodeAsync(context.Background(), "req-1", "hello world", nil)
	require.NoError(t, err)

	assert.Equal(t, blocking, async)
}
