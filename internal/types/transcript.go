package types

// Transcript is the ordered message list of one chat round. It only grows.
type Transcript struct {
	messages []Message
}

// NewTranscript starts a transcript with the optional system prompt, the
// client history and the new user message, in that order.
func NewTranscript(systemPrompt string, history []Message, userMessage string) *Transcript {
	t := &Transcript{messages: make([]Message, 0, len(history)+2)}
	if systemPrompt != "" {
		t.messages = append(t.messages, Message{Role: RoleSystem, Content: systemPrompt})
	}
	t.messages = append(t.messages, history...)
	t.messages = append(t.messages, Message{Role: RoleUser, Content: userMessage})
	return t
}

func (t *Transcript) Append(msgs ...Message) {
	t.messages = append(t.messages, msgs...)
}

// Messages returns a copy safe to hand to a completion call
func (t *Transcript) Messages() []Message {
	return append([]Message(nil), t.messages...)
}

func (t *Transcript) Len() int {
	return len(t.messages)
}
