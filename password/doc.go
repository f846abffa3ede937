// Package password provides one-way password hashing and verification
// built on argon2id with PHC-encoded output.
//
// Hashes are self-describing: the work factor travels inside the encoded
// string, so Verify re-derives with the stored parameters and the
// configured parameters only matter for new hashes. NeedsUpgrade reports
// when a stored hash was produced with a weaker work factor than the
// current configuration.
package password
