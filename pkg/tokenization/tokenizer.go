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
)

type remoteTokenizerImpl struct {
	config  RemoteTokenizerConfig
	client  *httpClient
	adapter engineAdapter
}

// NewRemoteTokenizer creates a tokenizer backed by an inference engine's
// tokenize endpoint. Only the vLLM engine API is supported.
func NewRemoteTokenizer(config RemoteTokenizerConfig) (Tokenizer, error) {
	if config.Endpoint == "" {
		return nil, ErrInvalidConfig{Message: "remote tokenizer requires an endpoint"}
	}

	adapter := newVLLMAdapter(config.Model)
	client := newHTTPClient(config.Endpoint, config.Timeout, config.MaxRetries, config.QPS)
	return &remoteTokenizerImpl{
		config:  config,
		client:  client,
		adapter: adapter,
	}, nil
}

func (t *remoteTokenizerImpl) Encode(ctx context.Context, text string) ([]int, error) {
	input := TokenizeInput{
		Type:             CompletionInput,
		Text:             text,
		AddSpecialTokens: t.config.AddSpecialTokens,
	}

	result, err := t.TokenizeWithOptions(ctx, input)
	if err != nil {
		return nil, err
	}

	return result.Tokens, nil
}

func (t *remoteTokenizerImpl) TokenizeWithOptions(ctx context.Context, input TokenizeInput) (*TokenizeResult, error) {
	request, err := t.adapter.buildRequest(input)
	if err != nil {
		return nil, err
	}

	respData, err := t.client.Post(ctx, t.adapter.tokenizePath(), request)
	if err != nil {
		return nil, ErrTokenizationFailed{
			Message: "request failed",
			Cause:   err,
		}
	}

	return t.adapter.parseResponse(respData)
}

func (t *remoteTokenizerImpl) BOSTokenID() *int {
	return t.config.SpecialTokens.BOSTokenID
}

func (t *remoteTokenizerImpl) EOSTokenID() *int {
	return t.config.SpecialTokens.EOSTokenID
}

func (t *remoteTokenizerImpl) Endpoint() string {
	return t.config.Endpoint
}

func (t *remoteTokenizerImpl) Close() error {
	if t.client != nil {
		t.client.Close()
	}
	return nil
}

var _ remoteTokenizer = (*remoteTokenizerImpl)(nil)
