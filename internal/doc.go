// Package internal holds secret-token plumbing shared by the engine:
// generation of high-entropy single-use tokens and the unsalted SHA-256
// digest stored for later comparison. Nothing here is part of the public
// API surface.
package internal
