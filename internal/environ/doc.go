// Package environ builds the environment and launch script of a confined
// application, and resolves the host fallbacks a Linux runtime expects
// to find inside its root.
//
// The variable list is deterministic: the same app id, uid and loaders
// cache always produce the same ordered exports. Fallbacks cover the
// gdk-pixbuf loaders cache location, OpenGL compatibility libraries copied
// in from the host's Linux userland, and diagnostic discovery of Vulkan
// ICDs, Vulkan layers and GL libraries.
package environ
