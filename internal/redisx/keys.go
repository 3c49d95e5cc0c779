package redisx

import "time"

const (
	// Cart read cache: cart:{user_id} -> cart JSON. Invalidated (deleted,
	// never rewritten in place) on every cart or order mutation.
	KeyCart = "cart:%s"

	// Delayed job queue, one sorted set per topic: jobs:{topic}
	KeyJobQueue = "jobs:%s"
)

var (
	TTLCart = 24 * time.Hour
)
