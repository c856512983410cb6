// SPDX-License-Identifier: MPL-2.0

// Package platform provides cross-platform compatibility utilities for
// naming output artifacts and matching native binaries against the build
// host architecture.
package platform

import (
	"debug/elf"
	"runtime"
	"strings"
)

// WindowsReservedNames are filenames that cannot be used on Windows.
// These names are reserved by the operating system regardless of file extension.
var WindowsReservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true,
	"COM5": true, "COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true,
	"LPT5": true, "LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// IsWindowsReservedName checks if a filename is a Windows reserved name.
// It handles filenames with extensions by checking just the base name portion.
func IsWindowsReservedName(name string) bool {
	upper := strings.ToUpper(name)
	if idx := strings.LastIndex(upper, "."); idx != -1 {
		upper = upper[:idx]
	}
	return WindowsReservedNames[upper]
}

// elfMachineArch maps ELF machine identifiers to GOARCH-style architecture
// names. Only architectures a build host can plausibly run on are listed;
// anything else is reported as unknown and treated as a mismatch.
var elfMachineArch = map[elf.Machine]string{
	elf.EM_X86_64:  "amd64",
	elf.EM_386:     "386",
	elf.EM_AARCH64: "arm64",
	elf.EM_ARM:     "arm",
	elf.EM_RISCV:   "riscv64",
	elf.EM_PPC64:   "ppc64",
	elf.EM_S390:    "s390x",
}

// HostArch returns the build host architecture in GOARCH form.
func HostArch() string {
	return runtime.GOARCH
}

// ELFArch returns the GOARCH-style architecture of an ELF machine value,
// or "" when the machine is not recognized.
func ELFArch(machine elf.Machine) string {
	return elfMachineArch[machine]
}

// IsELF reports whether data begins with the ELF magic number. Callers use
// this to decide whether an architecture check is possible for a native
// binary; non-ELF payloads cannot be verified on a Linux build host.
func IsELF(data []byte) bool {
	return len(data) >= 4 &&
		data[0] == 0x7f && data[1] == 'E' && data[2] == 'L' && data[3] == 'F'
}
