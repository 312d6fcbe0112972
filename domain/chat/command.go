package chat

// GetMessagesCommand asks for a page of history. Before is an opaque cursor
// returned by a previous call; nil starts from the newest messages.
type GetMessagesCommand struct {
	Limit  int
	Before *string
}

// SearchMessagesCommand runs a full-text query over the message index.
type SearchMessagesCommand struct {
	Terms string
	Limit int
}
