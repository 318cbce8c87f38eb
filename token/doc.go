// Package token decodes the claims embedded in a Digistar Club access token
// without verifying its signature. Verification is the server's job; the
// client only needs the identity and expiry claims to schedule auto-logout
// and restore the signed-in profile.
//
// Decode never panics and never uses errors for control flow beyond the
// single [ErrMalformed] sentinel: any structurally unusable token — wrong
// part count, bad base64, bad JSON, missing expiry — yields (nil,
// ErrMalformed), and callers must handle the degraded case.
package token
