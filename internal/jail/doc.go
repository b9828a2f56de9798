// Package jail defines the confinement runtime used to launch sandboxed
// applications.
//
// The Runtime interface covers the three operations a sandbox run needs:
// registering a persistent jail over a prepared root, executing the
// application inside it with the terminal attached, and removing the
// jail afterwards. FreeBSD implements it with jail(8) and either jexec(8)
// or chroot(8); MockRuntime records calls for tests.
//
// Usage:
//
//	rt := jail.NewFreeBSD(exec, cfg.Tools, cfg.Launcher)
//	if err := rt.Create(ctx, jail.CreateOptions{Name: name, Path: root, Hostname: "flatjail"}); err != nil {
//		return err
//	}
//	defer rt.Remove(ctx, name)
//	res, err := rt.Exec(ctx, name, []string{"/bin/sh", "-c", script}, jail.ExecOptions{Root: root})
package jail
