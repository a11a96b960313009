package model

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	ChannelPrefix        = "#"
	MaxChannelNameLength = 50
	MaxTopicLength       = 307
)

var ErrChannelNameEmpty = errors.New("channel name must not be empty")
var ErrChannelNameTooLong = errors.New("channel name too long")
var ErrChannelNamePrefix = errors.New("channel name must start with #")
var ErrChannelNameInvalidChars = errors.New("channel name contains invalid characters")
var ErrTopicTooLong = errors.New("topic too long")

// ValidateChannelName checks a "#"-prefixed channel name. Spaces, commas and
// control characters are not allowed.
func ValidateChannelName(name string) error {
	if name == "" {
		return ErrChannelNameEmpty
	}
	if !strings.HasPrefix(name, ChannelPrefix) {
		return ErrChannelNamePrefix
	}
	if len(name) == len(ChannelPrefix) {
		return ErrChannelNameEmpty
	}
	if utf8.RuneCountInString(name) > MaxChannelNameLength {
		return ErrChannelNameTooLong
	}
	for _, r := range name {
		if r == ' ' || r == ',' || r < 0x20 || r == 0x7f {
			return ErrChannelNameInvalidChars
		}
	}
	return nil
}

// NormalizeChannelName returns the case-folded registry key for name.
func NormalizeChannelName(name string) string {
	return strings.ToLower(name)
}

// ValidateTopic checks the length of a channel topic.
func ValidateTopic(topic string) error {
	if utf8.RuneCountInString(topic) > MaxTopicLength {
		return ErrTopicTooLong
	}
	return nil
}
