package domain

import "encoding/json"

// GmailProfile is the mailbox profile for an authenticated account.
type GmailProfile struct {
	EmailAddress  string `json:"emailAddress"`
	MessagesTotal int64  `json:"messagesTotal"`
	ThreadsTotal  int64  `json:"threadsTotal"`
	HistoryID     string `json:"historyId"`
}

// GmailMessageRef identifies a message in list and send results.
type GmailMessageRef struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
}

// GmailMessageList is one page of message refs.
type GmailMessageList struct {
	Messages           []GmailMessageRef `json:"messages"`
	NextPageToken      string            `json:"nextPageToken,omitempty"`
	ResultSizeEstimate int64             `json:"resultSizeEstimate"`
}

// GmailMessage is a message in metadata, raw or full form. The payload
// passes through exactly as Gmail returned it; no MIME interpretation
// happens on this side.
type GmailMessage struct {
	ID           string          `json:"id"`
	ThreadID     string          `json:"threadId"`
	LabelIDs     []string        `json:"labelIds,omitempty"`
	Snippet      string          `json:"snippet,omitempty"`
	InternalDate string          `json:"internalDate,omitempty"`
	SizeEstimate int64           `json:"sizeEstimate,omitempty"`
	Raw          string          `json:"raw,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}

// GmailLabel is a mailbox label.
type GmailLabel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}
