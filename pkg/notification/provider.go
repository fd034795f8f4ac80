package notification

import (
	"context"
	"fmt"
)

// Provider delivers one message to one destination. Send returns the
// provider's message id.
type Provider interface {
	Name() string
	// Ready is false when credentials are missing.
	Ready() bool
	Send(ctx context.Context, phone, body string) (string, error)
}

// SendError is a provider-side rejection with the provider's own code.
type SendError struct {
	Code    string
	Message string
}

func (e *SendError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Outcome is the result of one (contact, provider) attempt.
type Outcome struct {
	Provider          string `json:"provider"`
	ContactPhone      string `json:"contactPhone"`
	Success           bool   `json:"success"`
	ProviderMessageID string `json:"providerMessageId,omitempty"`
	ErrorCode         string `json:"errorCode,omitempty"`
	ErrorMessage      string `json:"errorMessage,omitempty"`
}

// Summary aggregates one batch on one provider. Reason is set only when
// the batch was short-circuited.
type Summary struct {
	Provider    string    `json:"provider"`
	SentCount   int       `json:"sentCount"`
	FailedCount int       `json:"failedCount"`
	Outcomes    []Outcome `json:"outcomes"`
	Reason      string    `json:"reason,omitempty"`
}
