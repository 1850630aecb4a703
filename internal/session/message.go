package session

import (
	"errors"
	"strings"

	"uwuchat/util"
)

// ErrEmptyMessage is returned for input that is blank after trimming.
var ErrEmptyMessage = errors.New("empty message")

// Endpoint is the chat server address.  It never changes for the
// lifetime of a Session.
type Endpoint struct {
	Host string
	Port int
}

// Address returns "host:port".
func (e Endpoint) Address() string { return util.FormatAddr(e.Host, e.Port) }

func (e Endpoint) String() string { return e.Address() }

// Line is one unit of transcript text for the presentation log.
// Important lines scroll the transcript to the bottom.
type Line struct {
	Text      string
	Important bool
}

// Message is a locally authored chat message.
type Message struct {
	Sender string
	Body   string
}

// NewMessage trims raw and rejects it when nothing is left.  Embedded
// line breaks become spaces because the wire format has no escaping.
func NewMessage(sender, raw string) (Message, error) {
	body := strings.TrimSpace(raw)
	if body == "" {
		return Message{}, ErrEmptyMessage
	}
	body = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(body)
	return Message{Sender: sender, Body: body}, nil
}

// Bytes encodes m as one wire frame: "{sender}: {body}\n".
func (m Message) Bytes() []byte {
	return []byte(m.Sender + ": " + m.Body + "\n")
}

// decode turns a received frame into display text.  Invalid UTF-8 is
// replaced rather than rejected; any byte sequence is a valid line.
func decode(frame []byte) string {
	return strings.ToValidUTF8(string(frame), "\uFFFD")
}
