package session

import (
	"fmt"
	"time"
)

// replyKind tags how a canned reply is produced
type replyKind int

const (
	replyStatic replyKind = iota // fixed text
	replyClock                   // derived from the current time
)

// cannedReply is a tagged variant: either fixed text or a pure function of
// the current time. No ad hoc callable storage — the kind says which field
// is live.
type cannedReply struct {
	kind  replyKind
	text  string
	clock func(time.Time) string
}

// resolve renders the reply for the given moment
func (r cannedReply) resolve(now time.Time) string {
	if r.kind == replyClock {
		return r.clock(now)
	}
	return r.text
}

// cannedReplies maps normalized query strings to their canned replies
func cannedReplies(userName string) map[string]cannedReply {
	timeReply := cannedReply{kind: replyClock, clock: func(now time.Time) string {
		return "The current time is " + now.Format("15:04:05") + "."
	}}
	dateReply := cannedReply{kind: replyClock, clock: func(now time.Time) string {
		return "Today's date is " + now.Format("2006-01-02") + "."
	}}

	return map[string]cannedReply{
		"what time is it?":     timeReply,
		"current time":         timeReply,
		"what's the time?":     timeReply,
		"what's today's date?": dateReply,
		"current date":         dateReply,
		"what date is it?":     dateReply,
		"how are you?":         {kind: replyStatic, text: "I'm doing great, thanks for asking!"},
		"hello":                {kind: replyStatic, text: fmt.Sprintf("Hello, %s! How can I assist you today?", userName)},
		"hi":                   {kind: replyStatic, text: fmt.Sprintf("Hi, %s! What's on your mind?", userName)},
		"goodbye":              {kind: replyStatic, text: "Goodbye! Have a great day!"},
		"bye":                  {kind: replyStatic, text: "See you later!"},
	}
}
