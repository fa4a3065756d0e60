// Package canon implements canonical JSON (RFC 8785 subset) and
// domain-separated SHA-256 fingerprints.
//
// Fingerprints identify instance content independently of file layout,
// key order or Unicode normalization, so the same instance written by two
// tools hashes identically.
package canon
