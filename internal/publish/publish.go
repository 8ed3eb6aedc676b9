// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package publish drives a loaded charm through a publish pipeline:
// build the artifact with charmcraft, then either push and promote it
// through the legacy charm store, or upload and release it on charmhub.
// Stages run sequentially; a failed stage aborts the pipeline and
// nothing is rolled back.
package publish

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/juju/charmpub/internal/charm"
	"github.com/juju/charmpub/internal/exec"
)

var logger = loggo.GetLogger("charmpub.publish")

// platformTag is the platform suffix charmcraft stamps on built
// artifact file names.
const platformTag = "ubuntu-20.04-amd64"

// Publisher publishes a single charm. It holds no state across
// invocations beyond the read-only charm source.
type Publisher struct {
	charm  *charm.CharmSource
	runner exec.ProcessRunner
}

// NewPublisher returns a Publisher for the given charm, driving
// external tools through runner.
func NewPublisher(source *charm.CharmSource, runner exec.ProcessRunner) *Publisher {
	return &Publisher{charm: source, runner: runner}
}

// Build packs the charm from its source. With destructiveMode the
// build runs in place instead of in an isolated environment.
func (p *Publisher) Build(destructiveMode bool) error {
	args := []string{"pack", "-p", p.charm.Path()}
	if destructiveMode {
		args = append(args, "--destructive-mode")
	}
	return errors.Trace(p.runner.Run("charmcraft", args...))
}

// ArtifactPath returns where the built charm lands: the process
// working directory, named from the charm name and the platform tag.
func (p *Publisher) ArtifactPath() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.Trace(err)
	}
	name := fmt.Sprintf("%s_%s.charm", p.charm.Meta().Name, platformTag)
	return filepath.Join(cwd, name), nil
}

// sortedNames returns the resource names in a fixed order, so tool
// invocations are reproducible.
func sortedNames(resources map[string]string) []string {
	names := make([]string, 0, len(resources))
	for name := range resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
