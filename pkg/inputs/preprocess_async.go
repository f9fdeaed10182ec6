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

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/inferax-ai/inferax/pkg/adapters"
)

// The async variants below are semantically identical to their blocking
// counterparts; tokenization is routed through the tokenizer group's worker
// pool so that waiting callers do not occupy a worker.

func (p *Preprocessor) tokenizePromptAsync(ctx context.Context, text, requestID string, lora *adapters.LoRARequest) ([]int, error) {
	if p.tokenizer == nil {
		return nil, ErrTokenizerUnavailable{}
	}
	return p.tokenizer.EncodeAsync(ctx, requestID, text, lora)
}

func (p *Preprocessor) extractComponentsAsync(ctx context.Context, prompt SingletonPrompt, requestID string, lora *adapters.LoRARequest) (promptComponents, error) {
	switch pr := prompt.(type) {
	case PlainTextPrompt:
		text := string(pr)
		tokenIDs, err := p.tokenizePromptAsync(ctx, text, requestID, lora)
		if err != nil {
			return promptComponents{}, err
		}
		return promptComponents{text: &text, tokenIDs: tokenIDs}, nil

	case TokensPrompt:
		return promptComponents{
			tokenIDs:  pr.PromptTokenIDs,
			mmData:    pr.MultiModalData,
			mmOptions: pr.MMProcessorKwargs,
		}, nil

	case TextPrompt:
		tokenIDs, err := p.tokenizePromptAsync(ctx, pr.Prompt, requestID, lora)
		if err != nil {
			return promptComponents{}, err
		}
		text := pr.Prompt
		return promptComponents{
			text:      &text,
			tokenIDs:  tokenIDs,
			mmData:    pr.MultiModalData,
			mmOptions: pr.MMProcessorKwargs,
		}, nil

	default:
		return promptComponents{}, ErrUnrecognizedPrompt{Value: prompt}
	}
}

// processEncoderDecoderPromptAsync extracts encoder and decoder sides
// concurrently when an explicit pair supplies both; the decoder extraction is
// never serialized behind the encoder one.
func (p *Preprocessor) processEncoderDecoderPromptAsync(ctx context.Context, prompt Prompt, requestID string) (*EncoderDecoderInputs, error) {
	var encoderComps, decoderComps promptComponents
	var mmProcessorKwargs ProcessorOptions

	switch pr := prompt.(type) {
	case ExplicitEncoderDecoderPrompt:
		if pr.DecoderPrompt == nil {
			var err error
			encoderComps, err = p.extractComponentsAsync(ctx, pr.EncoderPrompt, requestID, nil)
			if err != nil {
				return nil, err
			}
		} else {
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				var err error
				encoderComps, err = p.extractComponentsAsync(gctx, pr.EncoderPrompt, requestID, nil)
				return err
			})
			g.Go(func() error {
				var err error
				decoderComps, err = p.extractComponentsAsync(gctx, pr.DecoderPrompt, requestID, nil)
				return err
			})
			if err := g.Wait(); err != nil {
				return nil, err
			}
		}
		mmProcessorKwargs = pr.MMProcessorKwargs

	case SingletonPrompt:
		var err error
		encoderComps, err = p.extractComponentsAsync(ctx, pr, requestID, nil)
		if err != nil {
			return nil, err
		}
		// Without a decoder side, processor options are assumed to live in
		// the encoder prompt.
		mmProcessorKwargs = encoderComps.mmOptions

	default:
		return nil, ErrUnrecognizedPrompt{Value: prompt}
	}

	return p.buildEncDecInputs(encoderComps, decoderComps, mmProcessorKwargs)
}

func (p *Preprocessor) processDecoderOnlyPromptAsync(ctx context.Context, prompt SingletonPrompt, requestID string, lora *adapters.LoRARequest, promptAdapter *adapters.PromptAdapterRequest) (*DecoderOnlyInputs, error) {
	comps, err := p.extractComponentsAsync(ctx, prompt, requestID, lora)
	if err != nil {
		return nil, err
	}
	return p.buildDecoderOnlyInputs(comps, promptAdapter), nil
}

// PreprocessAsync is the suspendable twin of Preprocess, with identical
// observable results.
func (p *Preprocessor) PreprocessAsync(ctx context.Context, prompt Prompt, requestID string, lora *adapters.LoRARequest, promptAdapter *adapters.PromptAdapterRequest) (LLMInputs, error) {
	return p.observe(func() (LLMInputs, error) {
		if requestID == "" {
			requestID = uuid.New().String()
		}

		if p.IsEncoderDecoderModel() {
			return p.processEncoderDecoderPromptAsync(ctx, prompt, requestID)
		}

		if _, ok := prompt.(ExplicitEncoderDecoderPrompt); ok {
			return nil, ErrIncompatiblePrompt{}
		}

		single, ok := prompt.(SingletonPrompt)
		if !ok {
			return nil, ErrUnrecognizedPrompt{Value: prompt}
		}

		return p.processDecoderOnlyPromptAsync(ctx, single, requestID, lora, promptAdapter)
	})
}
