package services

import (
	"strings"
	"time"
)

// ChannelKind says what a governed channel is for.
type ChannelKind int

const (
	// KindCup channels earn a cup for every accepted message.
	KindCup ChannelKind = iota + 1
	// KindCups channels answer with the author's counters.
	KindCups
)

// ChannelRule is the single keyword a governed channel accepts.
type ChannelRule struct {
	Kind    ChannelKind
	Keyword string
	Warning string
	// WarningTTL is how long the warning stays up; zero leaves it in place.
	WarningTTL time.Duration
}

// Allows reports whether content matches the keyword, ignoring case and
// surrounding whitespace.
func (r ChannelRule) Allows(content string) bool {
	return NormalizeContent(content) == r.Keyword
}

func NormalizeContent(content string) string {
	return strings.ToLower(strings.TrimSpace(content))
}

const (
	CupKeyword  = "cup"
	CupsKeyword = "cups"

	CupWarning = "you fool. you dare say something else in my channel? " +
		"It is illegal to say anything but **cup** in this server."
	CupsWarning = "you can only say **cups** in this channel."

	CupWarningTTL = 7500 * time.Millisecond
)

// ChannelPolicy maps channel ids to the rule enforced there.
type ChannelPolicy struct {
	rules map[string]ChannelRule
}

// NewChannelPolicy builds the policy for the cup and cups channels.
func NewChannelPolicy(cupChannelID, cupsChannelID string) *ChannelPolicy {
	return &ChannelPolicy{rules: map[string]ChannelRule{
		cupChannelID: {
			Kind:       KindCup,
			Keyword:    CupKeyword,
			Warning:    CupWarning,
			WarningTTL: CupWarningTTL,
		},
		cupsChannelID: {
			Kind:    KindCups,
			Keyword: CupsKeyword,
			Warning: CupsWarning,
		},
	}}
}

// Rule returns the rule for a channel; ok is false for ungoverned channels.
func (p *ChannelPolicy) Rule(channelID string) (ChannelRule, bool) {
	r, ok := p.rules[channelID]
	return r, ok
}
