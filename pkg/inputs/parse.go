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

import "encoding/json"

// ParsePrompt classifies a raw prompt value into one of the known prompt
// shapes. It accepts already-typed Prompt values, plain strings, and decoded
// JSON mappings:
//
//   - "encoder_prompt" together with "decoder_prompt" marks an explicit
//     encoder/decoder pair, regardless of the nested values;
//   - "prompt_token_ids" marks a pre-tokenized prompt;
//   - "prompt" marks a text prompt.
//
// Anything else fails with ErrUnrecognizedPrompt.
func ParsePrompt(raw interface{}) (Prompt, error) {
	if p, ok := raw.(Prompt); ok {
		return p, nil
	}

	if m, ok := raw.(map[string]interface{}); ok {
		_, hasEncoder := m["encoder_prompt"]
		_, hasDecoder := m["decoder_prompt"]
		if hasEncoder && hasDecoder {
			return parseExplicitPair(m)
		}
	}

	return ParseSingletonPrompt(raw)
}

// ParseSingletonPrompt classifies a raw single-sided prompt value.
func ParseSingletonPrompt(raw interface{}) (SingletonPrompt, error) {
	switch v := raw.(type) {
	case SingletonPrompt:
		return v, nil

	case string:
		return PlainTextPrompt(v), nil

	case map[string]interface{}:
		if ids, ok := v["prompt_token_ids"]; ok {
			tokenIDs, err := toTokenIDs(ids)
			if err != nil {
				return nil, ErrUnrecognizedPrompt{Value: raw}
			}
			mmData, mmOptions, err := sideChannel(v)
			if err != nil {
				return nil, err
			}
			return TokensPrompt{
				PromptTokenIDs:    tokenIDs,
				MultiModalData:    mmData,
				MMProcessorKwargs: mmOptions,
			}, nil
		}

		if text, ok := v["prompt"].(string); ok {
			mmData, mmOptions, err := sideChannel(v)
			if err != nil {
				return nil, err
			}
			return TextPrompt{
				Prompt:            text,
				MultiModalData:    mmData,
				MMProcessorKwargs: mmOptions,
			}, nil
		}
	}

	return nil, ErrUnrecognizedPrompt{Value: raw}
}

func parseExplicitPair(m map[string]interface{}) (Prompt, error) {
	encoder, err := ParseSingletonPrompt(m["encoder_prompt"])
	if err != nil {
		return nil, err
	}

	var decoder SingletonPrompt
	if raw := m["decoder_prompt"]; raw != nil {
		decoder, err = ParseSingletonPrompt(raw)
		if err != nil {
			return nil, err
		}
	}

	options, err := toOptions(m["mm_processor_kwargs"])
	if err != nil {
		return nil, ErrUnrecognizedPrompt{Value: m}
	}

	return ExplicitEncoderDecoderPrompt{
		EncoderPrompt:     encoder,
		DecoderPrompt:     decoder,
		MMProcessorKwargs: options,
	}, nil
}

func sideChannel(m map[string]interface{}) (MultiModalData, ProcessorOptions, error) {
	data, err := toOptions(m["multi_modal_data"])
	if err != nil {
		return nil, nil, ErrUnrecognizedPrompt{Value: m}
	}
	options, err := toOptions(m["mm_processor_kwargs"])
	if err != nil {
		return nil, nil, ErrUnrecognizedPrompt{Value: m}
	}
	return MultiModalData(data), ProcessorOptions(options), nil
}

func toOptions(raw interface{}) (map[string]interface{}, error) {
	if raw == nil {
		return nil, nil
	}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil, ErrUnrecognizedPrompt{Value: raw}
	}
	return m, nil
}

// toTokenIDs converts a token id list, tolerating the numeric types JSON
// decoding produces.
func toTokenIDs(raw interface{}) ([]int, error) {
	switch v := raw.(type) {
	case []int:
		return v, nil

	case []interface{}:
		ids := make([]int, 0, len(v))
		for _, e := range v {
			switch n := e.(type) {
			case int:
				ids = append(ids, n)
			case float64:
				ids = append(ids, int(n))
			case json.Number:
				i, err := n.Int64()
				if err != nil {
					return nil, ErrUnrecognizedPrompt{Value: raw}
				}
				ids = append(ids, int(i))
			default:
				return nil, ErrUnrecognizedPrompt{Value: raw}
			}
		}
		return ids, nil
	}

	return nil, ErrUnrecognizedPrompt{Value: raw}
}
