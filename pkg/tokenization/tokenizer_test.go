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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/ptr"
)

func TestVLLMAdapterBuildRequest(t *testing.T) {
	adapter := newVLLMAdapter("test-model")

	t.Run("completion", func(t *testing.T) {
		input := TokenizeInput{
			Type:             CompletionInput,
			Text:             "hello world",
			AddSpecialTokens: true,
		}

		request, err := adapter.buildRequest(input)
		require.NoError(t, err)

		req, ok := request.(*vllmTokenizeCompletionRequest)
		require.True(t, ok, "expected completion request, got %T", request)
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, "hello world", req.Prompt)
		require.NotNil(t, req.AddSpecialTokens)
		assert.True(t, *req.AddSpecialTokens)
	})

	t.Run("chat", func(t *testing.T) {
		input := TokenizeInput{
			Type: ChatInput,
			Messages: []ChatMessage{
				{Role: "user", Content: "hi"},
			},
			AddGenerationPrompt: true,
		}

		request, err := adapter.buildRequest(input)
		require.NoError(t, err)

		req, ok := request.(*vllmTokenizeChatRequest)
		require.True(t, ok, "expected chat request, got %T", request)
		assert.Equal(t, input.Messages, req.Messages)
		require.NotNil(t, req.AddGenerationPrompt)
		assert.True(t, *req.AddGenerationPrompt)
	})

	t.Run("no model omits field", func(t *testing.T) {
		request, err := newVLLMAdapter("").buildRequest(TokenizeInput{
			Type: CompletionInput,
			Text: "hello",
		})
		require.NoError(t, err)
		assert.Empty(t, request.(*vllmTokenizeCompletionRequest).Model)
	})

	t.Run("unsupported type", func(t *testing.T) {
		_, err := adapter.buildRequest(TokenizeInput{Type: "embedding"})
		var target ErrTokenizationFailed
		require.ErrorAs(t, err, &target)
	})
}

func TestVLLMAdapterParseResponse(t *testing.T) {
	adapter := newVLLMAdapter("test-model")

	data := []byte(`{"count":3,"max_model_len":4096,"tokens":[1,2,3],"token_strs":["a","b","c"]}`)
	result, err := adapter.parseResponse(data)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Count)
	assert.Equal(t, 4096, result.MaxModelLen)
	assert.Equal(t, []int{1, 2, 3}, result.Tokens)
	assert.Equal(t, []string{"a", "b", "c"}, result.TokenStrings)

	_, err = adapter.parseResponse([]byte("not json"))
	var target ErrTokenizationFailed
	require.ErrorAs(t, err, &target)
}

func TestNewRemoteTokenizerRequiresEndpoint(t *testing.T) {
	_, err := NewRemoteTokenizer(RemoteTokenizerConfig{Model: "m"})

	var target ErrInvalidConfig
	require.ErrorAs(t, err, &target)
}

func TestRemoteTokenizerEncode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/tokenize", r.URL.Path)

		var req vllmTokenizeCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hello world", req.Prompt)
		assert.Equal(t, "test-model", req.Model)

		resp := vllmTokenizeResponse{Count: 2, MaxModelLen: 4096, Tokens: []int{15339, 1917}}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	tokenizer, err := NewRemoteTokenizer(RemoteTokenizerConfig{
		Endpoint: server.URL,
		Model:    "test-model",
		SpecialTokens: SpecialTokensConfig{
			BOSTokenID: ptr.To(1),
			EOSTokenID: ptr.To(2),
		},
	})
	require.NoError(t, err)
	defer tokenizer.(interface{ Close() error }).Close()

	tokens, err := tokenizer.Encode(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, []int{15339, 1917}, tokens)

	require.NotNil(t, tokenizer.BOSTokenID())
	assert.Equal(t, 1, *tokenizer.BOSTokenID())
	require.NotNil(t, tokenizer.EOSTokenID())
	assert.Equal(t, 2, *tokenizer.EOSTokenID())
}

func TestRemoteTokenizerChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req vllmTokenizeChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)

		resp := vllmTokenizeResponse{Count: 3, Tokens: []int{1, 2, 3}}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	tokenizer, err := NewRemoteTokenizer(RemoteTokenizerConfig{Endpoint: server.URL})
	require.NoError(t, err)

	extended, ok := tokenizer.(ExtendedTokenizer)
	require.True(t, ok)

	result, err := extended.TokenizeWithOptions(context.Background(), TokenizeInput{
		Type:     ChatInput,
		Messages: []ChatMessage{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, result.Tokens)
	assert.Equal(t, 3, result.Count)
}

func TestRemoteTokenizerHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	tokenizer, err := NewRemoteTokenizer(RemoteTokenizerConfig{Endpoint: server.URL})
	require.NoError(t, err)

	_, err = tokenizer.Encode(context.Background(), "hello")
	require.Error(t, err)

	var httpErr ErrHTTPRequest
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)

	var tokErr ErrTokenizationFailed
	assert.ErrorAs(t, err, &tokErr)
}

func TestRemoteTokenizerInvalidResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	tokenizer, err := NewRemoteTokenizer(RemoteTokenizerConfig{Endpoint: server.URL})
	require.NoError(t, err)

	_, err = tokenizer.Encode(context.Background(), "hello")

	var target ErrTokenizationFailed
	require.ErrorAs(t, err, &target)
}

func TestLocalTokenizer(t *testing.T) {
	tokenizer, err := NewLocalTokenizer(LocalTokenizerConfig{
		SpecialTokens: SpecialTokensConfig{BOSTokenID: ptr.To(100)},
	})
	require.NoError(t, err)

	first, err := tokenizer.Encode(context.Background(), "hello world")
	require.NoError(t, err)
	assert.NotEmpty(t, first)

	second, err := tokenizer.Encode(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	empty, err := tokenizer.Encode(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NotNil(t, tokenizer.BOSTokenID())
	assert.Equal(t, 100, *tokenizer.BOSTokenID())
	assert.Nil(t, tokenizer.EOSTokenID())
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "invalid config",
			err:      ErrInvalidConfig{Message: "missing endpoint"},
			expected: "invalid config: missing endpoint",
		},
		{
			name:     "tokenization failed",
			err:      ErrTokenizationFailed{Message: "request failed"},
			expected: "tokenization failed: request failed",
		},
		{
			name:     "http error with status",
			err:      ErrHTTPRequest{StatusCode: 503, Message: "unavailable"},
			expected: "HTTP 503: unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}
