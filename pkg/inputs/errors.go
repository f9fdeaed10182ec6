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

package inputs

import "fmt"

// ErrUnrecognizedPrompt reports an input matching none of the known prompt
// shapes.
type ErrUnrecognizedPrompt struct {
	Value interface{}
}

func (e ErrUnrecognizedPrompt) Error() string {
	return fmt.Sprintf("unrecognized prompt shape: %T", e.Value)
}

// ErrIncompatiblePrompt reports an explicit encoder/decoder prompt given to a
// decoder-only model.
type ErrIncompatiblePrompt struct{}

func (ErrIncompatiblePrompt) Error() string {
	return "cannot pass encoder-decoder prompt to decoder-only models"
}

// ErrTokenizerUnavailable reports a text prompt supplied while tokenizer
// initialization was skipped.
type ErrTokenizerUnavailable struct{}

func (ErrTokenizerUnavailable) Error() string {
	return "cannot pass text prompts when tokenizer initialization is skipped"
}

// ErrMissingBOSToken reports that no BOS token id could be resolved while
// synthesizing a default decoder prompt.
type ErrMissingBOSToken struct{}

func (ErrMissingBOSToken) Error() string {
	return "BOS token id is required to synthesize a default decoder prompt"
}

// ErrMissingDecoderStartToken reports that the decoder start token id could
// not be resolved for an encoder/decoder request.
type ErrMissingDecoderStartToken struct{}

func (ErrMissingDecoderStartToken) Error() string {
	return "decoder start token id could not be resolved"
}

// ErrMultiModalDecoder reports multi-modal payload on the decoder side of an
// encoder/decoder request.
type ErrMultiModalDecoder struct{}

func (ErrMultiModalDecoder) Error() string {
	return "multi-modal decoder inputs of encoder-decoder models are not supported"
}
