package notification

import (
	"strings"

	"github.com/shaharia-lab/pushrelay/internal/config"
)

// Formatter maps downtime change events to notification messages.
type Formatter struct {
	topic string
}

// NewFormatter creates a Formatter publishing to topic. An empty topic falls
// back to config.DefaultTopic.
func NewFormatter(topic string) *Formatter {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		topic = config.DefaultTopic
	}
	return &Formatter{topic: topic}
}

// Topic returns the topic every message is addressed to.
func (f *Formatter) Topic() string { return f.topic }

// Format builds the notification for event. It reports false for anything
// other than an INSERT; those events are not notified.
func (f *Formatter) Format(event ChangeEvent) (Message, bool) {
	if event.Type != EventInsert {
		return Message{}, false
	}

	line := fieldOr(event.Record, FieldLine, UnknownLine)
	cause := fieldOr(event.Record, FieldCause, UnknownCause)
	minutes := fieldOr(event.Record, FieldMinutes, UnknownMinutes)

	return Message{
		Topic: f.topic,
		Title: Title,
		Body:  buildBody(line, cause, minutes),
	}, true
}
