// Package ratelimit gates sensitive operations (login, signup, workspace
// creation, voting) before they reach business logic.
//
// A Limiter answers one question per call: may this identifier perform one
// more action under the given policy. Identifiers are arbitrary strings - an
// IP, a user ID, an email, or a composite built with the key helpers.
//
// Two interchangeable backends exist:
//
//   - Local: a per-process fixed window (count + reset time per identifier)
//     with a periodic sweep of expired entries. Always available, never errors.
//   - Sliding: a true sliding window over per-identifier timestamped members,
//     strictly more accurate at window edges. The algorithm lives in
//     SlidingLimiter over a WindowStore; the Redis store (one transactional
//     trim/insert/count pipeline per check) shares limits across processes,
//     the in-memory store keeps the same semantics in one process.
//
// New wires them together: prefer the shared backend when a Redis client is
// available, and fall back to the local backend transparently whenever a
// shared-store call fails. The fallback is deliberately in the strict
// direction - a rate-limit outage must neither become a user-visible failure
// nor an accidental bypass.
//
//	limiter := ratelimit.New(redisClient, ratelimit.WithLogger(log))
//
//	res, err := limiter.Check(ctx, "login:"+clientip.GetIP(r), ratelimit.Login)
//	if err != nil { ... }
//	if !res.Allowed {
//		// render 429 with res.RetryAfter()
//	}
//
// Middleware applies a policy to a whole route and emits the advisory
// X-RateLimit-* headers on every response plus Retry-After on denials.
package ratelimit
