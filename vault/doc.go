// Package vault persists the admin session — one token blob and one profile
// blob per device fingerprint — behind the [Store] interface.
//
// Two backends are provided: [FileStore] for a single workstation (with an
// fsnotify-based change watch so concurrent processes sharing the file can
// observe each other's logins and logouts), and [RedisStore] for deployments
// where several hosts share one session vault.
//
// Blobs are obfuscated with a fingerprint-derived XOR keystream before
// writing. That is deterrence against casual inspection, not encryption;
// the session token must still be treated as sensitive.
//
// # Architecture boundaries
//
// This package owns persistence and the [Record] model only. It does NOT
// decode tokens, schedule expiry, or decide authentication state — that is
// the Manager's job.
package vault
