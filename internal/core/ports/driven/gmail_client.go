package driven

import (
	"context"

	"github.com/custodia-labs/mailbridge-core/internal/core/domain"
)

// ListMessagesQuery bounds a mailbox listing. Q is handed to Gmail
// verbatim - its query language is the provider's business.
type ListMessagesQuery struct {
	Q          string
	MaxResults int
	PageToken  string
	LabelIDs   []string
}

// GmailClient performs authenticated Gmail REST calls with an access
// token supplied per call by the token service.
type GmailClient interface {
	// GetProfile returns the account's mailbox profile.
	GetProfile(ctx context.Context, accessToken string) (*domain.GmailProfile, error)

	// ListMessages lists message refs matching the query.
	ListMessages(ctx context.Context, accessToken string, q ListMessagesQuery) (*domain.GmailMessageList, error)

	// GetMessage fetches one message. Format is Gmail's: "metadata",
	// "minimal", "raw" or "full".
	GetMessage(ctx context.Context, accessToken, id, format string) (*domain.GmailMessage, error)

	// SendMessage sends a base64url-encoded RFC 822 payload as-is.
	SendMessage(ctx context.Context, accessToken, raw string) (*domain.GmailMessageRef, error)

	// ModifyMessage adds and removes label ids on a message.
	ModifyMessage(ctx context.Context, accessToken, id string, addLabelIDs, removeLabelIDs []string) (*domain.GmailMessage, error)

	// ListLabels lists the account's labels.
	ListLabels(ctx context.Context, accessToken string) ([]domain.GmailLabel, error)
}
