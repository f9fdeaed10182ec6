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

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Label names
	LabelModel   = "model"
	LabelOutcome = "outcome"
	LabelSource  = "source"

	// Outcome values
	OutcomeSuccess = "success"
	OutcomeError   = "error"

	// Tokenizer source values
	SourceLocal  = "local"
	SourceRemote = "remote"
)

// Metrics holds all Prometheus metrics for input preprocessing.
type Metrics struct {
	// Preprocessing counters and latency
	PreprocessTotal    prometheus.CounterVec
	PreprocessDuration prometheus.HistogramVec

	// Tokenization metrics
	TokenizeDuration prometheus.HistogramVec
	TokensTotal      prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Get returns the process-wide Metrics instance, registering the collectors
// on first use. Registration happens once so repeated construction of
// preprocessors or tokenizer groups cannot double-register.
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			PreprocessTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "inferax_preprocess_requests_total",
					Help: "Total number of prompts processed by the input preprocessor",
				},
				[]string{LabelModel, LabelOutcome},
			),

			PreprocessDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "inferax_preprocess_duration_seconds",
					Help:    "Input preprocessing latency distribution, tokenization included",
					Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
				},
				[]string{LabelModel},
			),

			TokenizeDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "inferax_tokenize_duration_seconds",
					Help:    "Tokenizer encode latency distribution per tokenizer source",
					Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
				},
				[]string{LabelSource},
			),

			TokensTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "inferax_tokens_total",
					Help: "Total prompt tokens produced by tokenization",
				},
				[]string{LabelModel},
			),
		}
	})
	return instance
}
