package sandbox

import (
	"bytes"
	"context"
	"debug/elf"
	"fmt"
	"strings"

	"github.com/firefly-engineering/flatjail/internal/logging"
	"github.com/firefly-engineering/flatjail/internal/system"
)

// brand checks the root has a shell and marks the target executable as a
// Linux binary so the kernel runs it under the Linux ABI.
func (s *Sandbox) brand(ctx context.Context, inst *Instance, _ *Report) Result {
	if !s.lexists(inst.path("bin/sh")) {
		return Abort(fmt.Errorf("%s has no bin/sh, the runtime tree is incomplete", inst.Root))
	}

	target, err := inst.inRoot(inst.Command)
	if err != nil {
		return Degraded(fmt.Sprintf("cannot resolve %s: %v", inst.Command, err))
	}
	if !s.fs.Exists(target) {
		logging.Debug("target executable not found, skipping branding", "path", target)
		return Continue()
	}

	osabi, isELF, err := readOSABI(s.fs, target)
	if err != nil {
		return Degraded(fmt.Sprintf("cannot read %s: %v", inst.Command, err))
	}
	if !isELF {
		logging.Debug("target is not an ELF file, skipping branding", "path", target)
		return Continue()
	}
	if osabi == elf.ELFOSABI_LINUX {
		return Continue()
	}

	logging.UserInfo("Branding %s as Linux", inst.Command)
	out, err := s.exec.Execute(ctx, s.cfg.Tools.Brandelf, "-t", "Linux", target)
	if err == nil {
		return Continue()
	}
	logging.Debug("brandelf failed, rewriting OSABI", "error", err, "output", strings.TrimSpace(string(out)))

	if err := s.fs.WriteAt(target, []byte{byte(elf.ELFOSABI_LINUX)}, elf.EI_OSABI); err != nil {
		return Degraded(fmt.Sprintf("failed to brand %s: %v", inst.Command, err))
	}
	return Continue()
}

// readOSABI reads the OSABI byte of the ELF identification. isELF is false
// for files without the ELF magic.
func readOSABI(fs system.FileSystem, path string) (osabi elf.OSABI, isELF bool, err error) {
	ident, err := fs.ReadHeader(path, elf.EI_NIDENT)
	if err != nil {
		return 0, false, err
	}
	if len(ident) < elf.EI_NIDENT || !bytes.Equal(ident[:4], []byte(elf.ELFMAG)) {
		return 0, false, nil
	}
	return elf.OSABI(ident[elf.EI_OSABI]), true, nil
}
