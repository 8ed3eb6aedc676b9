// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package exec runs the external tools the publish pipeline drives:
// charmcraft, the charm store client, unzip, docker and git. Every
// invocation blocks until the tool exits; failures carry the tool name.
package exec

import (
	"bytes"
	osexec "os/exec"

	"github.com/juju/errors"
	"github.com/juju/utils/v4"
)

// ProcessRunner invokes external tools. It exists so the pipeline can
// be tested without spawning processes.
type ProcessRunner interface {
	// Run spawns the tool with the given arguments and waits for it,
	// failing if the tool is missing or exits non-zero.
	Run(tool string, args ...string) error

	// Output is Run, additionally capturing and returning the tool's
	// standard output.
	Output(tool string, args ...string) ([]byte, error)

	// Stderr is Run, additionally capturing and returning the tool's
	// standard error.
	Stderr(tool string, args ...string) ([]byte, error)
}

// NewRunner returns a ProcessRunner backed by real processes.
func NewRunner() ProcessRunner {
	return runner{}
}

type runner struct{}

func (runner) Run(tool string, args ...string) error {
	if _, err := utils.RunCommand(tool, args...); err != nil {
		return errors.Annotatef(err, "running %q", tool)
	}
	return nil
}

func (runner) Output(tool string, args ...string) ([]byte, error) {
	output, err := osexec.Command(tool, args...).Output()
	if err != nil {
		return nil, errors.Annotatef(err, "running %q", tool)
	}
	return output, nil
}

func (runner) Stderr(tool string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := osexec.Command(tool, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, errors.Annotatef(err, "running %q", tool)
	}
	return stderr.Bytes(), nil
}
