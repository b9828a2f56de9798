// Package sandbox builds the ephemeral root of an installed application
// and runs it inside a jail.
//
// A run walks a fixed sequence of phases:
//
//	Teardown → ProvisionRoot → ProvisionTrees → RepairLayout →
//	BuildRunHierarchy → BridgeResources → BridgeKernelPseudoFS →
//	Brand → Launch
//
// Each phase returns a Result: Continue, Degraded with reasons, or Abort
// with an error. Sandbox.Run owns the policy. Degraded reasons are
// collected into the Report and shown as warnings; an Abort runs the
// abort cleanup plan (unregister the jail, unmount what this run mounted
// in reverse order, then the root) and fails the run with exit code 1.
//
// Teardown removes whatever the previous run of the same application
// left behind. It runs every action of its plan even when some fail, and
// only deletes the old root tree when the root itself was unmounted, so a
// host directory that is still bridged in is never recursed into.
//
// After a normal exit the jail is unregistered but the root and its
// mounts stay in place for inspection until the next run.
//
// Usage:
//
//	sb := sandbox.New(cfg, fs, exec, rt)
//	report, err := sb.Run(ctx, sandbox.RunOptions{AppID: "org.gnome.Calculator", RawSockets: true})
//
// There is no locking between concurrent runs of the same application.
package sandbox
