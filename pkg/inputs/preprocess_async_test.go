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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"k8s.io/utils/ptr"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("k8s.io/klog/v2.(*flushDaemon).run.func1"))
}

// TestPreprocessAsyncConcurrentExtraction proves encoder and decoder
// tokenization overlap: each side blocks until both have entered the
// tokenizer, which deadlocks if the two extractions run sequentially.
func TestPreprocessAsyncConcurrentExtraction(t *testing.T) {
	var barrier sync.WaitGroup
	barrier.Add(2)

	group := &fakeGroup{bos: ptr.To(2)}
	group.onEncode = func() {
		barrier.Done()
		barrier.Wait()
	}
	p := NewPreprocessor(encDecConfig(ptr.To(5)), group)

	pair := ExplicitEncoderDecoderPrompt{
		EncoderPrompt: PlainTextPrompt("enc"),
		DecoderPrompt: PlainTextPrompt("dec"),
	}

	type outcome struct {
		result LLMInputs
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := p.PreprocessAsync(context.Background(), pair, "req-1", nil, nil)
		done <- outcome{result: result, err: err}
	}()

	select {
	case out := <-done:
		require.NoError(t, out.err)
		inputs := out.result.(*EncoderDecoderInputs)
		assert.Equal(t, byteTokens("enc"), inputs.EncoderPromptTokenIDs)
		assert.Equal(t, append([]int{5}, byteTokens("dec")...), inputs.PromptTokenIDs)
	case <-time.After(5 * time.Second):
		t.Fatal("encoder and decoder extraction did not overlap")
	}
}

// A nil decoder side needs no concurrency; the single extraction must not
// block on a second arrival.
func TestPreprocessAsyncSingleSide(t *testing.T) {
	group := &fakeGroup{bos: ptr.To(2)}
	p := NewPreprocessor(encDecConfig(ptr.To(5)), group)

	pair := ExplicitEncoderDecoderPrompt{EncoderPrompt: PlainTextPrompt("enc")}
	result, err := p.PreprocessAsync(context.Background(), pair, "req-1", nil, nil)
	require.NoError(t, err)

	inputs := result.(*EncoderDecoderInputs)
	assert.Equal(t, byteTokens("enc"), inputs.EncoderPromptTokenIDs)
	assert.Equal(t, []int{5, 2}, inputs.PromptTokenIDs)
	assert.Equal(t, 1, group.calls())
}

func TestPreprocessAsyncRejectsMultiModalDecoder(t *testing.T) {
	group := &fakeGroup{bos: ptr.To(2)}
	p := NewPreprocessor(encDecConfig(ptr.To(5)), group)

	pair := ExplicitEncoderDecoderPrompt{
		EncoderPrompt: PlainTextPrompt("enc"),
		DecoderPrompt: TextPrompt{
			Prompt:         "dec",
			MultiModalData: MultiModalData{"image": "ref"},
		},
	}
	_, err := p.PreprocessAsync(context.Background(), pair, "req-1", nil, nil)

	var target ErrMultiModalDecoder
	require.ErrorAs(t, err, &target)
}
