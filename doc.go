// Package adminsession owns the authenticated-admin session lifecycle for the
// Digistar Club platform: access-token persistence, expiry-driven auto-logout,
// role predicates, and typed login/logout event notification.
//
// The central type is [Manager], built through [Builder.Build]. A Manager is
// the single source of truth for "who is signed in" within a process. It reads
// a previously persisted session from a [vault.Store] during [Manager.Initialize],
// exchanges credentials through a [Transport] during [Manager.Login], and tears
// the session down on [Manager.Logout] or when the token's embedded expiry
// elapses. All Manager methods are safe for concurrent use.
//
// # Architecture boundaries
//
// adminsession is the public surface. Navigation is only ever requested
// through the [Navigator] collaborator, never performed; HTTP enforcement
// lives in the guard package; credential exchange lives behind [Transport]
// (the rest package provides the Digistar API implementation).
//
// # What this package must NOT do
//
//   - Verify token signatures. The access token is decoded locally for its
//     expiry and identity claims only; verification is the server's job.
//   - Treat the persisted vault blobs as secrets at rest. The vault applies
//     casual-inspection obfuscation, not encryption.
//   - Retry failed logins or block teardown on remote logout failures.
package adminsession
