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

// Package inputs normalizes caller-supplied prompts into the token-level
// request representation consumed by the execution engine. Prompt shapes form
// closed unions; values are never mutated after construction, each pipeline
// stage produces a new value.
package inputs

// MultiModalData is the side-channel payload of a prompt: non-text content
// such as image or audio references, keyed by modality.
type MultiModalData map[string]interface{}

// ProcessorOptions carries request-level input processor overrides, passed
// through to the engine untouched.
type ProcessorOptions map[string]interface{}

// Prompt is any prompt shape accepted by the preprocessor. The union is
// closed: PlainTextPrompt, TextPrompt, TokensPrompt and
// ExplicitEncoderDecoderPrompt are the only implementations.
type Prompt interface {
	prompt()
}

// SingletonPrompt is a prompt describing exactly one side (encoder or
// decoder) of a request.
type SingletonPrompt interface {
	Prompt
	singletonPrompt()
}

// PlainTextPrompt is a bare text prompt with no attached payload.
type PlainTextPrompt string

// TextPrompt is a text prompt with optional side-channel payload and
// processor options.
type TextPrompt struct {
	Prompt            string           `json:"prompt"`
	MultiModalData    MultiModalData   `json:"multi_modal_data,omitempty"`
	MMProcessorKwargs ProcessorOptions `json:"mm_processor_kwargs,omitempty"`
}

// TokensPrompt is a pre-tokenized prompt. Its token ids pass through the
// pipeline verbatim.
type TokensPrompt struct {
	PromptTokenIDs    []int            `json:"prompt_token_ids"`
	MultiModalData    MultiModalData   `json:"multi_modal_data,omitempty"`
	MMProcessorKwargs ProcessorOptions `json:"mm_processor_kwargs,omitempty"`
}

// ExplicitEncoderDecoderPrompt supplies encoder and decoder prompts
// separately. A nil DecoderPrompt requests synthesis of the default decoder
// prompt.
type ExplicitEncoderDecoderPrompt struct {
	EncoderPrompt SingletonPrompt `json:"encoder_prompt"`
	DecoderPrompt SingletonPrompt `json:"decoder_prompt,omitempty"`

	// MMProcessorKwargs is scoped to the whole pair.
	MMProcessorKwargs ProcessorOptions `json:"mm_processor_kwargs,omitempty"`
}

func (PlainTextPrompt) prompt()              {}
func (PlainTextPrompt) singletonPrompt()     {}
func (TextPrompt) prompt()                   {}
func (TextPrompt) singletonPrompt()          {}
func (TokensPrompt) prompt()                 {}
func (TokensPrompt) singletonPrompt()        {}
func (ExplicitEncoderDecoderPrompt) prompt() {}

// LLMInputs is the normalized output of preprocessing. The union is closed:
// DecoderOnlyInputs and EncoderDecoderInputs are the only implementations.
type LLMInputs interface {
	llmInputs()
}

// DecoderOnlyInputs is the normalized request for a decoder-only model.
// PromptTokenIDs is never nil (it may be empty for an adapter-only prompt).
type DecoderOnlyInputs struct {
	PromptTokenIDs    []int            `json:"prompt_token_ids"`
	Prompt            *string          `json:"prompt,omitempty"`
	MultiModalData    MultiModalData   `json:"multi_modal_data,omitempty"`
	MMProcessorKwargs ProcessorOptions `json:"mm_processor_kwargs,omitempty"`
}

// EncoderDecoderInputs is the normalized request for an encoder/decoder
// model. The unprefixed fields describe the decoder side. PromptTokenIDs and
// EncoderPromptTokenIDs are never nil; MultiModalData is always nil since
// multi-modal decoder inputs are rejected.
type EncoderDecoderInputs struct {
	PromptTokenIDs    []int            `json:"prompt_token_ids"`
	Prompt            *string          `json:"prompt,omitempty"`
	MultiModalData    MultiModalData   `json:"multi_modal_data,omitempty"`
	MMProcessorKwargs ProcessorOptions `json:"mm_processor_kwargs"`

	EncoderPromptTokenIDs []int          `json:"encoder_prompt_token_ids"`
	EncoderPrompt         *string        `json:"encoder_prompt,omitempty"`
	EncoderMultiModalData MultiModalData `json:"encoder_multi_modal_data,omitempty"`
}

func (*DecoderOnlyInputs) llmInputs()    {}
func (*EncoderDecoderInputs) llmInputs() {}

// promptComponents is the pipeline-internal view of one extracted prompt
// side. A nil tokenIDs slice marks an absent decoder side awaiting synthesis.
type promptComponents struct {
	text      *string
	tokenIDs  []int
	mmData    MultiModalData
	mmOptions ProcessorOptions
}
