// Package ref turns user-supplied identifiers into canonical Flatpak
// references.
//
// A canonical reference has four slash-separated parts:
//
//	app/org.gnome.Calculator/x86_64/stable
//	runtime/org.gnome.Platform/x86_64/46
//
// Resolver accepts three input forms, checked in order: a path to a
// .flatpakref file, a partial or full reference containing a slash, and a
// bare application id. Only the first form touches the filesystem.
package ref
