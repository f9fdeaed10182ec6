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
	"time"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/inferax-ai/inferax/pkg/adapters"
	"github.com/inferax-ai/inferax/pkg/metrics"
	"github.com/inferax-ai/inferax/pkg/model"
	"github.com/inferax-ai/inferax/pkg/tokenization"
)

// TokenizerGroup is the tokenizer collaborator of the preprocessor. Encode
// and EncodeAsync must produce identical results for identical inputs;
// TokenizerFor exposes the per-adapter tokenizer for special-token lookup.
// tokenization.Group satisfies this interface.
type TokenizerGroup interface {
	Encode(ctx context.Context, requestID, text string, lora *adapters.LoRARequest) ([]int, error)
	EncodeAsync(ctx context.Context, requestID, text string, lora *adapters.LoRARequest) ([]int, error)
	TokenizerFor(lora *adapters.LoRARequest) (tokenization.Tokenizer, error)
}

// Preprocessor turns caller-supplied prompts into normalized LLMInputs. It
// holds no mutable state and is safe for concurrent use.
type Preprocessor struct {
	modelConfig *model.Config
	tokenizer   TokenizerGroup
	metrics     *metrics.Metrics
}

// NewPreprocessor wires the preprocessor to its collaborators. A nil
// tokenizer means tokenizer initialization was skipped: pre-tokenized prompts
// still work, text prompts fail with ErrTokenizerUnavailable.
func NewPreprocessor(modelConfig *model.Config, tokenizer TokenizerGroup) *Preprocessor {
	return &Preprocessor{
		modelConfig: modelConfig,
		tokenizer:   tokenizer,
		metrics:     metrics.Get(),
	}
}

func (p *Preprocessor) IsEncoderDecoderModel() bool {
	return p.modelConfig != nil && p.modelConfig.IsEncoderDecoder
}

// BOSTokenID resolves the BOS token id for the given adapter. It never
// fails: unresolvable ids are reported on the warning channel and returned as
// nil.
func (p *Preprocessor) BOSTokenID(lora *adapters.LoRARequest) *int {
	tok := p.lookupTokenizer(lora, "BOS")
	if tok == nil {
		return nil
	}
	return tok.BOSTokenID()
}

// EOSTokenID resolves the EOS token id for the given adapter, with the same
// nil semantics as BOSTokenID.
func (p *Preprocessor) EOSTokenID(lora *adapters.LoRARequest) *int {
	tok := p.lookupTokenizer(lora, "EOS")
	if tok == nil {
		return nil
	}
	return tok.EOSTokenID()
}

func (p *Preprocessor) lookupTokenizer(lora *adapters.LoRARequest, kind string) tokenization.Tokenizer {
	if p.tokenizer == nil {
		klog.Warningf("Using nil %s token id because tokenizer is not initialized", kind)
		return nil
	}

	tok, err := p.tokenizer.TokenizerFor(lora)
	if err != nil {
		klog.Warningf("Using nil %s token id because tokenizer lookup failed: %v", kind, err)
		return nil
	}
	return tok
}

// DecoderStartTokenID resolves the decoder start token id of an
// encoder/decoder model, falling back on BOS when the model config does not
// declare one. Returns nil with a warning for non-encoder/decoder models or
// missing model config.
func (p *Preprocessor) DecoderStartTokenID() *int {
	if !p.IsEncoderDecoderModel() {
		klog.Warning("Using nil decoder start token id because this is not an encoder/decoder model")
		return nil
	}

	if p.modelConfig == nil || p.modelConfig.HF == nil {
		klog.Warning("Using nil decoder start token id because model config is not available")
		return nil
	}

	if id := p.modelConfig.HF.DecoderStartTokenID; id != nil {
		return id
	}

	klog.Warning("Falling back on BOS for decoder start token id because decoder start token id is not available")
	return p.BOSTokenID(nil)
}

// defaultDecoderPrompt synthesizes the decoder prompt used when the caller
// supplies only an encoder prompt. It approximates the generic generation
// convention of forcing the first decoded token to BOS.
func (p *Preprocessor) defaultDecoderPrompt() ([]int, error) {
	bos := p.BOSTokenID(nil)
	if bos == nil {
		return nil, ErrMissingBOSToken{}
	}
	return []int{*bos}, nil
}

// prepareDecoderInputIDs enforces the decoder-start invariant: a nil input
// is replaced by the default decoder prompt, and when forceBOS is set the
// sequence is prefixed with the decoder start token unless it already is.
func (p *Preprocessor) prepareDecoderInputIDs(decoderInputIDs []int, forceBOS bool) ([]int, error) {
	startID := p.DecoderStartTokenID()
	if startID == nil {
		return nil, ErrMissingDecoderStartToken{}
	}

	if decoderInputIDs == nil {
		defaultIDs, err := p.defaultDecoderPrompt()
		if err != nil {
			return nil, err
		}
		decoderInputIDs = defaultIDs
	}

	if forceBOS && (len(decoderInputIDs) == 0 || decoderInputIDs[0] != *startID) {
		decoderInputIDs = append([]int{*startID}, decoderInputIDs...)
	}

	return decoderInputIDs, nil
}

// applyPromptAdapter prepends the adapter's virtual-token placeholders.
func applyPromptAdapter(tokenIDs []int, promptAdapter *adapters.PromptAdapterRequest) []int {
	if promptAdapter == nil {
		return tokenIDs
	}
	return append(make([]int, promptAdapter.NumVirtualTokens), tokenIDs...)
}

func (p *Preprocessor) tokenizePrompt(ctx context.Context, text, requestID string, lora *adapters.LoRARequest) ([]int, error) {
	if p.tokenizer == nil {
		return nil, ErrTokenizerUnavailable{}
	}
	return p.tokenizer.Encode(ctx, requestID, text, lora)
}

// extractComponents produces the uniform component tuple for one prompt
// side, tokenizing text or passing token ids through.
func (p *Preprocessor) extractComponents(ctx context.Context, prompt SingletonPrompt, requestID string, lora *adapters.LoRARequest) (promptComponents, error) {
	switch pr := prompt.(type) {
	case PlainTextPrompt:
		text := string(pr)
		tokenIDs, err := p.tokenizePrompt(ctx, text, requestID, lora)
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
		tokenIDs, err := p.tokenizePrompt(ctx, pr.Prompt, requestID, lora)
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

// buildEncDecInputs assembles both sides into the normalized encoder/decoder
// request. Multi-modal models may embed their own leading control tokens in
// the prompt, so the decoder-start prefix is only forced when neither side
// carries multi-modal payload.
func (p *Preprocessor) buildEncDecInputs(encoderComps, decoderComps promptComponents, mmProcessorKwargs ProcessorOptions) (*EncoderDecoderInputs, error) {
	if decoderComps.mmData != nil {
		return nil, ErrMultiModalDecoder{}
	}

	forceBOS := encoderComps.mmData == nil && decoderComps.mmData == nil
	decoderTokenIDs, err := p.prepareDecoderInputIDs(decoderComps.tokenIDs, forceBOS)
	if err != nil {
		return nil, err
	}

	if mmProcessorKwargs == nil {
		mmProcessorKwargs = ProcessorOptions{}
	}

	encoderTokenIDs := encoderComps.tokenIDs
	if encoderTokenIDs == nil {
		encoderTokenIDs = []int{}
	}

	return &EncoderDecoderInputs{
		PromptTokenIDs:        decoderTokenIDs,
		Prompt:                decoderComps.text,
		MultiModalData:        decoderComps.mmData,
		MMProcessorKwargs:     mmProcessorKwargs,
		EncoderPromptTokenIDs: encoderTokenIDs,
		EncoderPrompt:         encoderComps.text,
		EncoderMultiModalData: encoderComps.mmData,
	}, nil
}

// processEncoderDecoderPrompt maps an input prompt onto encoder and decoder
// sides. A singleton input is treated as encoder-only; the decoder side is
// synthesized.
func (p *Preprocessor) processEncoderDecoderPrompt(ctx context.Context, prompt Prompt, requestID string) (*EncoderDecoderInputs, error) {
	var encoderComps, decoderComps promptComponents
	var mmProcessorKwargs ProcessorOptions

	switch pr := prompt.(type) {
	case ExplicitEncoderDecoderPrompt:
		var err error
		encoderComps, err = p.extractComponents(ctx, pr.EncoderPrompt, requestID, nil)
		if err != nil {
			return nil, err
		}

		if pr.DecoderPrompt != nil {
			decoderComps, err = p.extractComponents(ctx, pr.DecoderPrompt, requestID, nil)
			if err != nil {
				return nil, err
			}
		}
		mmProcessorKwargs = pr.MMProcessorKwargs

	case SingletonPrompt:
		var err error
		encoderComps, err = p.extractComponents(ctx, pr, requestID, nil)
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

// buildDecoderOnlyInputs packages extracted components, splicing in prompt
// adapter placeholders first.
func (p *Preprocessor) buildDecoderOnlyInputs(comps promptComponents, promptAdapter *adapters.PromptAdapterRequest) *DecoderOnlyInputs {
	tokenIDs := applyPromptAdapter(comps.tokenIDs, promptAdapter)
	if tokenIDs == nil {
		tokenIDs = []int{}
	}

	return &DecoderOnlyInputs{
		PromptTokenIDs:    tokenIDs,
		Prompt:            comps.text,
		MultiModalData:    comps.mmData,
		MMProcessorKwargs: comps.mmOptions,
	}
}

func (p *Preprocessor) processDecoderOnlyPrompt(ctx context.Context, prompt SingletonPrompt, requestID string, lora *adapters.LoRARequest, promptAdapter *adapters.PromptAdapterRequest) (*DecoderOnlyInputs, error) {
	comps, err := p.extractComponents(ctx, prompt, requestID, lora)
	if err != nil {
		return nil, err
	}
	return p.buildDecoderOnlyInputs(comps, promptAdapter), nil
}

// Preprocess normalizes the input prompt, blocking the caller for the
// duration of any tokenization. An empty requestID is replaced with a
// generated one.
func (p *Preprocessor) Preprocess(ctx context.Context, prompt Prompt, requestID string, lora *adapters.LoRARequest, promptAdapter *adapters.PromptAdapterRequest) (LLMInputs, error) {
	return p.observe(func() (LLMInputs, error) {
		if requestID == "" {
			requestID = uuid.New().String()
		}

		if p.IsEncoderDecoderModel() {
			// Encoder/decoder models require the special mapping of input
			// prompts to encoder and decoder sides.
			return p.processEncoderDecoderPrompt(ctx, prompt, requestID)
		}

		if _, ok := prompt.(ExplicitEncoderDecoderPrompt); ok {
			return nil, ErrIncompatiblePrompt{}
		}

		single, ok := prompt.(SingletonPrompt)
		if !ok {
			return nil, ErrUnrecognizedPrompt{Value: prompt}
		}

		return p.processDecoderOnlyPrompt(ctx, single, requestID, lora, promptAdapter)
	})
}

// observe wraps a preprocessing run with metrics.
func (p *Preprocessor) observe(run func() (LLMInputs, error)) (LLMInputs, error) {
	modelName := ""
	if p.modelConfig != nil {
		modelName = p.modelConfig.ModelName
	}

	start := time.Now()
	result, err := run()
	p.metrics.PreprocessDuration.WithLabelValues(modelName).Observe(time.Since(start).Seconds())

	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeError
	}
	p.metrics.PreprocessTotal.WithLabelValues(modelName, outcome).Inc()

	return result, err
}
