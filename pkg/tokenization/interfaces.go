package tokenization

import "context"

// Tokenizer converts text into token ids for one model or adapter. Special
// token ids are nullable: a tokenizer may legitimately have neither BOS nor
// EOS configured.
type Tokenizer interface {
	Encode(ctx context.Context, text string) ([]int, error)
	BOSTokenID() *int
	EOSTokenID() *int
}

// ExtendedTokenizer additionally supports engine-level tokenize options such
// as chat-template rendering.
type ExtendedTokenizer interface {
	Tokenizer
	TokenizeWithOptions(ctx context.Context, input TokenizeInput) (*TokenizeResult, error)
}

type remoteTokenizer interface {
	ExtendedTokenizer
	Endpoint() string
	Close() error
}

// engineAdapter translates between TokenizeInput/TokenizeResult and one
// engine's tokenize wire format. Adapters return typed tokenization errors.
type engineAdapter interface {
	buildRequest(input TokenizeInput) (interface{}, error)
	parseResponse(data []byte) (*TokenizeResult, error)
	tokenizePath() string
}
