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

// Package adapters holds the per-request adapter selectors that the
// preprocessing pipeline threads through to its collaborators. A nil selector
// always means "no adapter attached" and is a first-class case everywhere.
package adapters

// LoRARequest selects a LoRA adapter for a request. The preprocessor treats
// it as an opaque identity and only forwards it to tokenizer lookup.
type LoRARequest struct {
	Name string `json:"name"`
	ID   int    `json:"id"`
	Path string `json:"path,omitempty"`
}

// PromptAdapterRequest selects a prompt adapter (prompt tuning / p-tuning)
// for a request. NumVirtualTokens placeholder positions are prepended to the
// prompt token ids so the engine can substitute the adapter's learned
// embeddings.
type PromptAdapterRequest struct {
	Name string `json:"name"`
	ID   int    `json:"id"`
	Path string `json:"path,omitempty"`

	// NumVirtualTokens is always >= 0. Zero makes the splice a no-op.
	NumVirtualTokens int `json:"num_virtual_tokens"`
}
