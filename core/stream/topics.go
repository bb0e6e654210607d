package stream

import "strings"

// TopicFor derives the broker topic for an order id.
func TopicFor(prefix, orderID string) string {
	return prefix + orderID
}

// OrderFromTopic is the inverse of TopicFor. It reports false when the topic
// does not carry the prefix.
func OrderFromTopic(prefix, topic string) (string, bool) {
	if !strings.HasPrefix(topic, prefix) {
		return "", false
	}
	return strings.TrimPrefix(topic, prefix), true
}
