// Package gmail implements the Gmail port on the official Gmail REST
// client. Every call authenticates with the access token the token
// service resolved for the connection; this package holds no
// credentials of its own.
package gmail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/custodia-labs/mailbridge-core/internal/core/domain"
	"github.com/custodia-labs/mailbridge-core/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.GmailClient = (*Client)(nil)

// Config holds the settings for the Gmail client.
type Config struct {
	// Endpoint overrides the Gmail API base URL, used by tests.
	Endpoint string

	// Logger for structured logging. If nil, uses slog.Default().
	Logger *slog.Logger
}

// Client performs Gmail REST calls for the mail operations.
type Client struct {
	endpoint string
	logger   *slog.Logger
}

// NewClient creates a new Gmail client.
func NewClient(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		endpoint: cfg.Endpoint,
		logger:   logger.With("component", "gmail"),
	}
}

// service builds a Gmail service authenticated with the given token.
// Tokens differ per call, so the service is built per call too; the
// underlying transport is cheap once the token source is static.
func (c *Client) service(ctx context.Context, accessToken string) (*gmail.Service, error) {
	opts := []option.ClientOption{
		option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: accessToken,
			TokenType:   "Bearer",
		})),
	}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}

	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return svc, nil
}

// GetProfile returns the account's mailbox profile.
func (c *Client) GetProfile(ctx context.Context, accessToken string) (*domain.GmailProfile, error) {
	svc, err := c.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	profile, err := svc.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return nil, translateError("get_profile", err)
	}

	return &domain.GmailProfile{
		EmailAddress:  profile.EmailAddress,
		MessagesTotal: profile.MessagesTotal,
		ThreadsTotal:  profile.ThreadsTotal,
		HistoryID:     strconv.FormatUint(profile.HistoryId, 10),
	}, nil
}

// ListMessages lists message refs matching the query.
func (c *Client) ListMessages(ctx context.Context, accessToken string, q driven.ListMessagesQuery) (*domain.GmailMessageList, error) {
	svc, err := c.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	call := svc.Users.Messages.List("me").Context(ctx)
	if q.Q != "" {
		call = call.Q(q.Q)
	}
	if q.MaxResults > 0 {
		call = call.MaxResults(int64(q.MaxResults))
	}
	if q.PageToken != "" {
		call = call.PageToken(q.PageToken)
	}
	if len(q.LabelIDs) > 0 {
		call = call.LabelIds(q.LabelIDs...)
	}

	res, err := call.Do()
	if err != nil {
		return nil, translateError("list_messages", err)
	}

	list := &domain.GmailMessageList{
		NextPageToken:      res.NextPageToken,
		ResultSizeEstimate: res.ResultSizeEstimate,
	}
	for _, m := range res.Messages {
		list.Messages = append(list.Messages, domain.GmailMessageRef{
			ID:       m.Id,
			ThreadID: m.ThreadId,
		})
	}
	return list, nil
}

// GetMessage fetches one message in the requested format.
func (c *Client) GetMessage(ctx context.Context, accessToken, id, format string) (*domain.GmailMessage, error) {
	svc, err := c.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	call := svc.Users.Messages.Get("me", id).Context(ctx)
	if format != "" {
		call = call.Format(format)
	}

	msg, err := call.Do()
	if err != nil {
		return nil, translateError("get_message", err)
	}
	return convertMessage(msg)
}

// SendMessage sends a base64url-encoded RFC 822 payload.
func (c *Client) SendMessage(ctx context.Context, accessToken, raw string) (*domain.GmailMessageRef, error) {
	svc, err := c.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	sent, err := svc.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return nil, translateError("send_message", err)
	}

	return &domain.GmailMessageRef{
		ID:       sent.Id,
		ThreadID: sent.ThreadId,
	}, nil
}

// ModifyMessage adds and removes label ids on a message.
func (c *Client) ModifyMessage(ctx context.Context, accessToken, id string, addLabelIDs, removeLabelIDs []string) (*domain.GmailMessage, error) {
	svc, err := c.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	msg, err := svc.Users.Messages.Modify("me", id, &gmail.ModifyMessageRequest{
		AddLabelIds:    addLabelIDs,
		RemoveLabelIds: removeLabelIDs,
	}).Context(ctx).Do()
	if err != nil {
		return nil, translateError("modify_message", err)
	}
	return convertMessage(msg)
}

// ListLabels lists the account's labels.
func (c *Client) ListLabels(ctx context.Context, accessToken string) ([]domain.GmailLabel, error) {
	svc, err := c.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	res, err := svc.Users.Labels.List("me").Context(ctx).Do()
	if err != nil {
		return nil, translateError("list_labels", err)
	}

	labels := make([]domain.GmailLabel, 0, len(res.Labels))
	for _, l := range res.Labels {
		labels = append(labels, domain.GmailLabel{
			ID:   l.Id,
			Name: l.Name,
			Type: l.Type,
		})
	}
	return labels, nil
}

// convertMessage maps the REST message onto the domain type. The
// payload is kept as raw JSON; MIME interpretation is the caller's
// business.
func convertMessage(msg *gmail.Message) (*domain.GmailMessage, error) {
	out := &domain.GmailMessage{
		ID:           msg.Id,
		ThreadID:     msg.ThreadId,
		LabelIDs:     msg.LabelIds,
		Snippet:      msg.Snippet,
		SizeEstimate: msg.SizeEstimate,
		Raw:          msg.Raw,
	}
	if msg.InternalDate != 0 {
		out.InternalDate = strconv.FormatInt(msg.InternalDate, 10)
	}
	if msg.Payload != nil {
		payload, err := json.Marshal(msg.Payload)
		if err != nil {
			return nil, fmt.Errorf("encode message payload: %w", err)
		}
		out.Payload = payload
	}
	return out, nil
}

// translateError maps Gmail API failures onto the typed provider error:
// expired or revoked access is ErrUnauthorized, missing messages
// ErrNotFound, rate limits and server trouble ErrProviderUnavailable.
func translateError(op string, err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return fmt.Errorf("gmail %s: %w", op, err)
	}

	perr := &domain.ProviderError{
		Op:          "gmail_" + op,
		StatusCode:  gerr.Code,
		Description: gerr.Message,
	}
	if len(gerr.Errors) > 0 {
		perr.Code = gerr.Errors[0].Reason
	}

	switch {
	case gerr.Code == http.StatusUnauthorized:
		perr.Err = domain.ErrUnauthorized
	case gerr.Code == http.StatusForbidden:
		// Gmail reports quota exhaustion as 403 with a limit-exceeded
		// reason; that is backpressure, not an auth problem.
		if limitExceeded(gerr) {
			perr.Err = domain.ErrProviderUnavailable
		} else {
			perr.Err = domain.ErrUnauthorized
		}
	case gerr.Code == http.StatusNotFound:
		perr.Err = domain.ErrNotFound
	case gerr.Code == http.StatusTooManyRequests || gerr.Code >= 500:
		perr.Err = domain.ErrProviderUnavailable
	default:
		perr.Err = domain.ErrProviderRejected
	}
	return perr
}

func limitExceeded(gerr *googleapi.Error) bool {
	for _, item := range gerr.Errors {
		if strings.Contains(strings.ToLower(item.Reason), "limitexceeded") {
			return true
		}
	}
	return false
}
