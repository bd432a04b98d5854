package instagram

// SendRequest is the Graph API send-message payload.
type SendRequest struct {
	Recipient     SendRecipient `json:"recipient"`
	Message       SendMessage   `json:"message"`
	MessagingType string        `json:"messaging_type"`
}

// SendRecipient identifies the Instagram-scoped user to message.
type SendRecipient struct {
	ID string `json:"id"`
}

// SendMessage is the message body.
type SendMessage struct {
	Text string `json:"text"`
}

// SendResponse is the Graph API reply.
type SendResponse struct {
	RecipientID string     `json:"recipient_id"`
	MessageID   string     `json:"message_id"`
	Error       *SendError `json:"error,omitempty"`
}

// SendError is the Graph API error envelope.
type SendError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}
