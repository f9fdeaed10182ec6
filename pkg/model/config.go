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

// Package model describes the served model as far as input preprocessing
// needs to know about it. Model loading and execution live elsewhere.
package model

// HFConfig mirrors the subset of a HuggingFace model configuration consumed
// by the preprocessing pipeline. Fields are pointers where the upstream
// config may omit them.
type HFConfig struct {
	ModelType string `json:"model_type,omitempty"`

	// DecoderStartTokenID is the token id that must lead the decoder input
	// sequence of an encoder/decoder model. Nil when the model config does
	// not declare one; callers fall back to BOS.
	DecoderStartTokenID *int `json:"decoder_start_token_id,omitempty"`
}

// Config is the model-configuration collaborator of the preprocessor.
type Config struct {
	ModelName string `json:"model_name"`

	// IsEncoderDecoder selects the encoder/decoder input mapping. Decoder-only
	// models reject explicit encoder/decoder prompts.
	IsEncoderDecoder bool `json:"is_encoder_decoder"`

	// HF carries the nested HuggingFace configuration, when available.
	HF *HFConfig `json:"hf,omitempty"`
}
