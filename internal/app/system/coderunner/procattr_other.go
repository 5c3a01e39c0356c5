//go:build windows

package coderunner

import "os/exec"

func setProcessGroup(cmd *exec.Cmd) {}
