// Package ostree drives the ostree command-line tool against the local
// content repository.
//
// flatjail never reads the repository format itself. Every operation is
// an invocation of the ostree binary found by FindBinary:
//
//	ostree init --mode=archive-z2 --repo <repo>
//	ostree remote add --if-not-exists --no-gpg-verify --repo <repo> <name> <url>
//	ostree config --repo <repo> set remote.<name>.gpg-verify false
//	ostree pull --repo <repo> <remote> <ref>
//	ostree rev-parse --repo <repo> <remote>:<ref>
//	ostree checkout --repo <repo> --user-mode <commit> <dir>
//
// Signature verification is always disabled for the remotes flatjail
// registers. This matches how the content is consumed on hosts that have
// no trusted keyring for the Linux userland.
//
// The repository config also gets core.summary-max-size raised so large
// remote summaries (Flathub's exceeds the ostree default) can be fetched.
package ostree
