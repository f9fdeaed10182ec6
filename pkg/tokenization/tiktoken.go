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

	"github.com/pkoukk/tiktoken-go"
	tiktokenloader "github.com/pkoukk/tiktoken-go-loader"
)

const defaultEncoding = "cl100k_base"

type localTokenizer struct {
	encoding *tiktoken.Tiktoken
	special  SpecialTokensConfig
}

// NewLocalTokenizer creates an in-process tiktoken tokenizer. The offline
// loader serves the encoding tables from embedded data, so no network access
// is needed.
func NewLocalTokenizer(config LocalTokenizerConfig) (Tokenizer, error) {
	tiktoken.SetBpeLoader(tiktokenloader.NewOfflineLoader())

	name := config.Encoding
	if name == "" {
		name = defaultEncoding
	}

	encoding, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, ErrTokenizationFailed{
			Message: "failed to load encoding " + name,
			Cause:   err,
		}
	}

	return &localTokenizer{
		encoding: encoding,
		special:  config.SpecialTokens,
	}, nil
}

func (t *localTokenizer) Encode(_ context.Context, text string) ([]int, error) {
	return t.encoding.Encode(text, nil, nil), nil
}

func (t *localTokenizer) BOSTokenID() *int {
	return t.special.BOSTokenID
}

func (t *localTokenizer) EOSTokenID() *int {
	return t.special.EOSTokenID
}
