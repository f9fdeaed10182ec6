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

import "encoding/json"

// vllmAdapter speaks the tokenize API of a vLLM OpenAI-compatible server.
// An empty model name is omitted from request bodies and the server falls
// back to its served model.
type vllmAdapter struct {
	model string
}

func newVLLMAdapter(model string) *vllmAdapter {
	return &vllmAdapter{model: model}
}

func (a *vllmAdapter) tokenizePath() string {
	return "/tokenize"
}

// buildRequest maps a TokenizeInput onto the engine's completion or chat
// tokenize body. Chat inputs go through the server's chat template.
func (a *vllmAdapter) buildRequest(input TokenizeInput) (interface{}, error) {
	switch input.Type {
	case CompletionInput:
		return &vllmTokenizeCompletionRequest{
			Model:            a.model,
			Prompt:           input.Text,
			AddSpecialTokens: &input.AddSpecialTokens,
			ReturnTokenStrs:  &input.ReturnTokenStrings,
		}, nil

	case ChatInput:
		return &vllmTokenizeChatRequest{
			Model:               a.model,
			Messages:            input.Messages,
			AddSpecialTokens:    &input.AddSpecialTokens,
			AddGenerationPrompt: &input.AddGenerationPrompt,
			ReturnTokenStrs:     &input.ReturnTokenStrings,
		}, nil

	default:
		return nil, ErrTokenizationFailed{
			Message: "unsupported tokenize input type " + string(input.Type),
		}
	}
}

func (a *vllmAdapter) parseResponse(data []byte) (*TokenizeResult, error) {
	var resp vllmTokenizeResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, ErrTokenizationFailed{
			Message: "malformed tokenize response",
			Cause:   err,
		}
	}

	return &TokenizeResult{
		Count:        resp.Count,
		MaxModelLen:  resp.MaxModelLen,
		Tokens:       resp.Tokens,
		TokenStrings: resp.TokenStrs,
	}, nil
}
