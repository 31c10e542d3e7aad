// Package password implements Argon2id secret hashing in PHC string format.
//
// Verification is constant-time over the derived keys. Cost parameters are
// read from the stored hash, never from the current config, so hashes written
// under older parameters keep verifying and can be detected for upgrade via
// NeedsUpgrade.
package password
