// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package publish

import (
	"fmt"
	"os"
	"strings"

	"github.com/juju/errors"
	"gopkg.in/yaml.v2"

	"github.com/juju/charmpub/internal/charm/resource"
)

// ToCharmStore builds the charm, pushes it to the charm store at url,
// and promotes the resulting revision to each channel in the order
// given. A failed channel aborts the remaining ones; channels already
// promoted stay promoted.
func (p *Publisher) ToCharmStore(url string, resources map[string]string, channels []string, destructiveMode bool) (string, error) {
	if err := p.charm.Meta().Validate(); err != nil {
		return "", errors.Trace(err)
	}
	if err := p.Build(destructiveMode); err != nil {
		return "", errors.Trace(err)
	}
	revURL, err := p.push(url, resources)
	if err != nil {
		return "", errors.Trace(err)
	}
	for _, channel := range channels {
		if err := p.promote(revURL, channel); err != nil {
			return "", errors.Annotatef(err, "releasing %q to channel %q", revURL, channel)
		}
	}
	return revURL, nil
}

// push unpacks the built artifact into a temporary directory, resolves
// the charm's resources and pushes everything to the store. The
// returned value is the revision URL assigned by the store.
func (p *Publisher) push(csURL string, supplied map[string]string) (string, error) {
	artifact, err := p.ArtifactPath()
	if err != nil {
		return "", errors.Trace(err)
	}

	dir, err := os.MkdirTemp("", "charmpub-push-")
	if err != nil {
		return "", errors.Trace(err)
	}
	defer os.RemoveAll(dir)

	if err := p.runner.Run("unzip", artifact, "-d", dir); err != nil {
		return "", errors.Trace(err)
	}

	resources, err := p.charm.ResolveResources(supplied)
	if err != nil {
		return "", errors.Trace(err)
	}

	// Pull every oci-image resource locally so the store client can
	// push the image along with the charm. Other resource kinds are
	// passed through as-is.
	meta := p.charm.Meta()
	for _, name := range sortedNames(resources) {
		if meta.Resources[name].Type != resource.TypeOCIImage {
			continue
		}
		if err := p.runner.Run("docker", "pull", resources[name]); err != nil {
			return "", errors.Trace(err)
		}
	}

	args := []string{"push", dir, csURL}
	for _, name := range sortedNames(resources) {
		args = append(args, "--resource", name+"="+resources[name])
	}
	output, err := p.runner.Output("charm", args...)
	if err != nil {
		return "", errors.Trace(err)
	}
	revURL, err := parsePushURL(output)
	if err != nil {
		return "", errors.Trace(err)
	}

	p.tagCommit(revURL)
	return revURL, nil
}

// tagCommit records the current git commit against the pushed
// revision. Best effort: failures are logged, never propagated.
func (p *Publisher) tagCommit(revURL string) {
	output, err := p.runner.Output("git", "rev-parse", "HEAD")
	if err != nil {
		logger.Warningf("cannot determine git revision for %q, not tagging: %v",
			p.charm.Meta().Name, err)
		return
	}
	commit := strings.TrimSpace(string(output))
	if err := p.runner.Run("charm", "set", revURL, "commit="+commit); err != nil {
		logger.Warningf("cannot tag %q with commit %q: %v", revURL, commit, err)
	}
}

// resourceRevision is one record of the list-resources YAML listing.
type resourceRevision struct {
	Name     string `yaml:"name"`
	Revision int    `yaml:"revision"`
}

// promote releases the pushed revision to a channel, carrying along
// every resource revision the store has attached to it.
func (p *Publisher) promote(revURL, channel string) error {
	output, err := p.runner.Output("charm", "list-resources", revURL, "--format", "yaml")
	if err != nil {
		return errors.Trace(err)
	}
	var revisions []resourceRevision
	if err := yaml.Unmarshal(output, &revisions); err != nil {
		return errors.NewNotValid(err, "list-resources output")
	}

	args := []string{"release", revURL, "--channel", channel}
	for _, rev := range revisions {
		args = append(args, "--resource", fmt.Sprintf("%s-%d", rev.Name, rev.Revision))
	}
	return errors.Trace(p.runner.Run("charm", args...))
}
