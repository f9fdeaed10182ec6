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

import "time"

type TokenizeInputType string

const (
	CompletionInput TokenizeInputType = "completion"
	ChatInput       TokenizeInputType = "chat"
)

type TokenizeInput struct {
	Type                TokenizeInputType
	Text                string
	Messages            []ChatMessage
	AddSpecialTokens    bool
	ReturnTokenStrings  bool
	AddGenerationPrompt bool
}

type TokenizeResult struct {
	Count        int      `json:"count"`
	MaxModelLen  int      `json:"max_model_len"`
	Tokens       []int    `json:"tokens"`
	TokenStrings []string `json:"token_strs,omitempty"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SpecialTokensConfig supplies the special token ids a tokenizer cannot
// derive on its own. BPE encodings carry no BOS/EOS, and the vLLM tokenize
// API does not expose them either, so both backends take them from config.
// Nil means the tokenizer has no such token.
type SpecialTokensConfig struct {
	BOSTokenID *int `json:"bos_token_id,omitempty"`
	EOSTokenID *int `json:"eos_token_id,omitempty"`
}

// LocalTokenizerConfig configures the in-process tiktoken tokenizer.
type LocalTokenizerConfig struct {
	// Encoding is the tiktoken encoding name. Defaults to cl100k_base.
	Encoding string `json:"encoding,omitempty"`

	SpecialTokens SpecialTokensConfig `json:"special_tokens,omitempty"`
}

// RemoteTokenizerConfig configures a tokenizer backed by an inference
// engine's tokenize endpoint.
type RemoteTokenizerConfig struct {
	Engine             string        `json:"engine,omitempty"`
	Endpoint           string        `json:"endpoint"`
	Model              string        `json:"model,omitempty"`
	Timeout            time.Duration `json:"timeout,omitempty"`
	MaxRetries         int           `json:"max_retries,omitempty"`
	AddSpecialTokens   bool          `json:"add_special_tokens,omitempty"`
	ReturnTokenStrings bool          `json:"return_token_strings,omitempty"`

	// QPS caps outbound tokenize calls on the client side. Zero disables
	// limiting.
	QPS float64 `json:"qps,omitempty"`

	SpecialTokens SpecialTokensConfig `json:"special_tokens,omitempty"`
}

type vllmTokenizeCompletionRequest struct {
	Model            string `json:"model,omitempty"`
	Prompt           string `json:"prompt"`
	AddSpecialTokens *bool  `json:"add_special_tokens,omitempty"`
	ReturnTokenStrs  *bool  `json:"return_token_strs,omitempty"`
}

type vllmTokenizeChatRequest struct {
	Model               string                 `json:"model,omitempty"`
	Messages            []ChatMessage          `json:"messages"`
	AddSpecialTokens    *bool                  `json:"add_special_tokens,omitempty"`
	AddGenerationPrompt *bool                  `json:"add_generation_prompt,omitempty"`
	ReturnTokenStrs     *bool                  `json:"return_token_strs,omitempty"`
	ChatTemplate        *string                `json:"chat_template,omitempty"`
	ChatTemplateKwargs  map[string]interface{} `json:"chat_template_kwargs,omitempty"`
}

type vllmTokenizeResponse struct {
	Count       int      `json:"count"`
	MaxModelLen int      `json:"max_model_len"`
	Tokens      []int    `json:"tokens"`
	TokenStrs   []string `json:"token_strs,omitempty"`
}
