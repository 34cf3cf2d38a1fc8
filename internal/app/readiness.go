package app

import (
	"context"
)

// Pinger is the minimal interface for an upstream AI client capable of Ping.
type Pinger interface{ Ping(ctx context.Context) error }

// TopicCounter is the minimal topic store view readiness needs.
type TopicCounter interface{ Count() int }

// BuildReadinessChecks returns the topic-count probe and the upstream probe
// wired into /readyz. A nil upstream client means the app runs on the
// built-in mock; the readiness handler reports that as ready.
func BuildReadinessChecks(store TopicCounter, upstream Pinger) (func() int, func(ctx context.Context) error) {
	topicCount := func() int {
		if store == nil {
			return 0
		}
		return store.Count()
	}
	if upstream == nil {
		return topicCount, nil
	}
	aiCheck := func(ctx context.Context) error { return upstream.Ping(ctx) }
	return topicCount, aiCheck
}
