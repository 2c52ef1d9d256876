package vectorizer

import "errors"

var (
	ErrAPIKeyRequired      = errors.New("API key is required")
	ErrInvalidModel        = errors.New("invalid embedding model")
	ErrVectorizationFailed = errors.New("failed to vectorize text")
)
