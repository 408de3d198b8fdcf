// Package observability provides metrics and tracing.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts failed Redis commands by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feeds_redis_errors_total",
		Help: "Redis command failures, excluding cache misses",
	}, []string{"command"})

	// SessionCacheLookups counts session resolutions by outcome (hit, miss, db).
	SessionCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feeds_session_cache_lookups_total",
		Help: "Session token resolutions by cache outcome",
	}, []string{"outcome"})

	// SessionsIssued counts successful logins.
	SessionsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feeds_sessions_issued_total",
		Help: "Session tokens issued",
	})

	// LoginFailures counts rejected logins.
	LoginFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feeds_login_failures_total",
		Help: "Rejected login attempts",
	})

	// FriendTransitions counts social graph transitions by kind.
	FriendTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feeds_friend_transitions_total",
		Help: "Friend graph transitions (send, accept, reject, cancel, unfriend)",
	}, []string{"transition"})

	// ReactionWrites counts reaction toggles by target and effect.
	ReactionWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feeds_reaction_writes_total",
		Help: "Reaction toggles by target kind and effect",
	}, []string{"target", "effect"})

	// WebSocketConnections tracks open websocket connections.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "feeds_websocket_connections",
		Help: "Open websocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped for slow clients.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feeds_websocket_backpressure_drops_total",
		Help: "Messages dropped because a client buffer was full or closed",
	}, []string{"reason"})
)
