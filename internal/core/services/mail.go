package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/custodia-labs/mailbridge-core/internal/core/domain"
	"github.com/custodia-labs/mailbridge-core/internal/core/ports/driven"
	"github.com/custodia-labs/mailbridge-core/internal/core/ports/driving"
)

// Ensure mailService implements MailService
var _ driving.MailService = (*mailService)(nil)

// MailServiceConfig holds configuration for the mail service.
type MailServiceConfig struct {
	// Tokens produces a valid access token per call.
	Tokens driving.TokenService

	// Gmail performs the REST calls.
	Gmail driven.GmailClient

	Logger *slog.Logger
}

// mailService implements the MailService interface. It is a thin
// facade: resolve an access token through the token service, hand it to
// the Gmail client, return the result. Credentials never reach callers.
type mailService struct {
	tokens driving.TokenService
	gmail  driven.GmailClient
	logger *slog.Logger
}

// NewMailService creates a new mail service.
func NewMailService(cfg MailServiceConfig) driving.MailService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &mailService{
		tokens: cfg.Tokens,
		gmail:  cfg.Gmail,
		logger: logger,
	}
}

func (s *mailService) Profile(ctx context.Context, connectionID string) (*domain.GmailProfile, error) {
	token, err := s.tokens.GetValidAccessToken(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	profile, err := s.gmail.GetProfile(ctx, token.Token)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

func (s *mailService) Search(ctx context.Context, connectionID string, req driving.SearchRequest) (*domain.GmailMessageList, error) {
	token, err := s.tokens.GetValidAccessToken(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	list, err := s.gmail.ListMessages(ctx, token.Token, driven.ListMessagesQuery{
		Q:          req.Q,
		MaxResults: req.MaxResults,
		PageToken:  req.PageToken,
		LabelIDs:   req.LabelIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return list, nil
}

func (s *mailService) GetMessage(ctx context.Context, connectionID, messageID, format string) (*domain.GmailMessage, error) {
	if messageID == "" {
		return nil, fmt.Errorf("%w: message id is required", domain.ErrInvalidInput)
	}
	token, err := s.tokens.GetValidAccessToken(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	msg, err := s.gmail.GetMessage(ctx, token.Token, messageID, format)
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	return msg, nil
}

func (s *mailService) Send(ctx context.Context, connectionID string, req driving.SendRequest) (*domain.GmailMessageRef, error) {
	if req.Raw == "" {
		return nil, fmt.Errorf("%w: raw message is required", domain.ErrInvalidInput)
	}
	token, err := s.tokens.GetValidAccessToken(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	ref, err := s.gmail.SendMessage(ctx, token.Token, req.Raw)
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	s.logger.Info("message sent", "connection_id", connectionID, "message_id", ref.ID)
	return ref, nil
}

func (s *mailService) Modify(ctx context.Context, connectionID, messageID string, req driving.ModifyRequest) (*domain.GmailMessage, error) {
	if messageID == "" {
		return nil, fmt.Errorf("%w: message id is required", domain.ErrInvalidInput)
	}
	if len(req.AddLabelIDs) == 0 && len(req.RemoveLabelIDs) == 0 {
		return nil, fmt.Errorf("%w: nothing to modify", domain.ErrInvalidInput)
	}
	token, err := s.tokens.GetValidAccessToken(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	msg, err := s.gmail.ModifyMessage(ctx, token.Token, messageID, req.AddLabelIDs, req.RemoveLabelIDs)
	if err != nil {
		return nil, fmt.Errorf("modify message: %w", err)
	}
	return msg, nil
}

func (s *mailService) Labels(ctx context.Context, connectionID string) ([]domain.GmailLabel, error) {
	token, err := s.tokens.GetValidAccessToken(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	labels, err := s.gmail.ListLabels(ctx, token.Token)
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	return labels, nil
}
