package osutil

import (
	"os"
	"runtime"
)

const (
	Windows = "windows"
	Darwin  = "darwin"
)

type exitCode int

const (
	ExitOK    exitCode = 0
	ExitError exitCode = 1
)

const DirPermission = 0o755

// Exit terminates the process with the given code.
func Exit(code exitCode) {
	os.Exit(int(code))
}

// DefaultEditor is used when neither VISUAL nor EDITOR is set.
func DefaultEditor() string {
	if runtime.GOOS == Windows {
		return "C:\\Windows\\system32\\notepad.exe"
	}

	return "nano"
}
