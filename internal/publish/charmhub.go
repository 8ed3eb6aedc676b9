// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package publish

import (
	"fmt"

	"github.com/juju/errors"

	"github.com/juju/charmpub/internal/charm"
	"github.com/juju/charmpub/internal/charm/resource"
)

// ToCharmHub builds the charm and uploads it to charmhub, releasing to
// the given channels as part of the same upload call. Each oci-image
// resource is uploaded separately first and referenced by the revision
// charmhub assigns to it. The returned value is the destination URL
// with the new charm revision attached.
func (p *Publisher) ToCharmHub(url string, supplied map[string]string, channels []string, destructiveMode bool) (string, error) {
	meta := p.charm.Meta()
	if err := meta.Validate(); err != nil {
		return "", errors.Trace(err)
	}
	if err := p.Build(destructiveMode); err != nil {
		return "", errors.Trace(err)
	}

	resources, err := p.charm.ResolveResources(supplied)
	if err != nil {
		return "", errors.Trace(err)
	}

	var resourceArgs []string
	for _, name := range sortedNames(resources) {
		if meta.Resources[name].Type != resource.TypeOCIImage {
			continue
		}
		err := p.runner.Run("charmcraft",
			"upload-resource", meta.Name, name, "--image", resources[name])
		if err != nil {
			return "", errors.Trace(err)
		}
		listing, err := p.runner.Stderr("charmcraft", "resource-revisions", meta.Name, name)
		if err != nil {
			return "", errors.Trace(err)
		}
		revision, err := parseResourceRevision(listing)
		if err != nil {
			return "", errors.Annotatef(err, "resource %q", name)
		}
		resourceArgs = append(resourceArgs, fmt.Sprintf("--resource=%s:%d", name, revision))
	}

	artifact, err := p.ArtifactPath()
	if err != nil {
		return "", errors.Trace(err)
	}
	args := []string{"upload", artifact}
	for _, channel := range channels {
		args = append(args, "--release="+channel)
	}
	args = append(args, resourceArgs...)

	output, err := p.runner.Stderr("charmcraft", args...)
	if err != nil {
		return "", errors.Trace(err)
	}
	revision, err := parseUploadRevision(output)
	if err != nil {
		return "", errors.Trace(err)
	}

	curl, err := charm.ParseURL(url)
	if err != nil {
		return "", errors.Trace(err)
	}
	return curl.WithRevision(revision).String(), nil
}
