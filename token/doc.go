// Package token reads and mints the bearer credentials handled by goSession.
//
// [Decode] extracts the subject and expiry from a credential's payload segment
// without verifying its signature. Decoding never fails loudly: any malformed
// input yields "no payload" and the caller treats the session as unusable.
//
// [Issuer] signs and verifies access tokens. The session layer itself never
// verifies signatures; the issuer backs the in-process stub API used by tests
// and the example console.
//
// # What this package must NOT do
//
//   - Read or write the credential store.
//   - Panic on attacker-controlled input.
//   - Treat a decoded payload as proof of authenticity.
package token
