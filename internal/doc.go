// Package internal holds the device-fingerprint derivation and the vault
// obfuscation codec shared by the vault stores. Nothing here is part of the
// public API.
package internal
