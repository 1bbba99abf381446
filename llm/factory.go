package llm

import (
	"log"
	"os"
	"time"
)

const (
	// EnvMedgateMode is the environment variable name for mode selection.
	EnvMedgateMode = "MEDGATE_MODE"
	// ModeMock indicates mock mode should be used.
	ModeMock = "MOCK"
)

// NewClient creates an LLM client based on the MEDGATE_MODE environment
// variable. If MEDGATE_MODE=MOCK, returns a MockClient; otherwise returns a
// real HTTPClient.
func NewClient(baseURL, apiKey string, timeout time.Duration) Client {
	if os.Getenv(EnvMedgateMode) == ModeMock {
		log.Println("MEDGATE_MODE=MOCK detected, using mock LLM client")
		return NewMockClient()
	}

	return NewHTTPClient(baseURL, apiKey, timeout)
}
