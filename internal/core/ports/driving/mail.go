package driving

import (
	"context"

	"github.com/custodia-labs/mailbridge-core/internal/core/domain"
)

// MailService performs Gmail operations on behalf of a connection. Each
// call first obtains a valid access token from the token service, so
// callers never touch credentials.
type MailService interface {
	// Profile returns the connection's mailbox profile.
	Profile(ctx context.Context, connectionID string) (*domain.GmailProfile, error)

	// Search lists message refs matching a Gmail query string, passed
	// through verbatim.
	Search(ctx context.Context, connectionID string, req SearchRequest) (*domain.GmailMessageList, error)

	// GetMessage fetches one message in the requested format.
	GetMessage(ctx context.Context, connectionID, messageID, format string) (*domain.GmailMessage, error)

	// Send sends a base64url-encoded RFC 822 payload.
	Send(ctx context.Context, connectionID string, req SendRequest) (*domain.GmailMessageRef, error)

	// Modify adds and removes labels on a message.
	Modify(ctx context.Context, connectionID, messageID string, req ModifyRequest) (*domain.GmailMessage, error)

	// Labels lists the connection's labels.
	Labels(ctx context.Context, connectionID string) ([]domain.GmailLabel, error)
}

// SearchRequest bounds a mailbox search.
// @Description Gmail search parameters; q uses Gmail's own query syntax
type SearchRequest struct {
	Q          string   `json:"q,omitempty" example:"from:billing@example.com is:unread"`
	MaxResults int      `json:"max_results,omitempty" example:"25"`
	PageToken  string   `json:"page_token,omitempty"`
	LabelIDs   []string `json:"label_ids,omitempty"`
}

// SendRequest carries a raw message to send.
// @Description Raw RFC 822 message, base64url encoded
type SendRequest struct {
	Raw string `json:"raw"`
}

// ModifyRequest adjusts message labels.
// @Description Label ids to add and remove on a message
type ModifyRequest struct {
	AddLabelIDs    []string `json:"add_label_ids,omitempty"`
	RemoveLabelIDs []string `json:"remove_label_ids,omitempty"`
}
