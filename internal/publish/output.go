// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package publish

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/juju/errors"
	"gopkg.in/yaml.v2"
)

// The external tools interleave machine-readable and human-readable
// output on a single stream. The slicing lives here, isolated, because
// it depends on exact byte offsets and delimiters in output this tool
// does not control.

// parsePushURL extracts the revision URL from charm store push output.
// The first line is a YAML document with a url field; everything after
// the first newline is docker push noise and is discarded.
func parsePushURL(output []byte) (string, error) {
	i := bytes.IndexByte(output, '\n')
	if i < 0 {
		return "", errors.NotValidf("push output without newline")
	}
	var fields map[string]string
	if err := yaml.Unmarshal(output[:i], &fields); err != nil {
		return "", errors.NewNotValid(err, "push output")
	}
	url, ok := fields["url"]
	if !ok {
		return "", errors.NotFoundf("url in push output")
	}
	return url, nil
}

// uploadRevisionPrefix is the fixed diagnostic prefix charmcraft
// prints before the assigned revision, as in "Revision 7 of ...".
const uploadRevisionPrefix = "Revision "

// parseUploadRevision extracts the charm revision from charmcraft
// upload diagnostics by skipping the fixed prefix and truncating at
// the first space.
func parseUploadRevision(output []byte) (int, error) {
	if len(output) <= len(uploadRevisionPrefix) {
		return 0, errors.NotValidf("upload output %q", string(output))
	}
	rest := output[len(uploadRevisionPrefix):]
	i := bytes.IndexByte(rest, ' ')
	if i < 0 {
		return 0, errors.NotValidf("upload output %q", string(output))
	}
	revision, err := strconv.Atoi(string(rest[:i]))
	if err != nil {
		return 0, errors.NewNotValid(err, "upload revision")
	}
	return revision, nil
}

// parseResourceRevision extracts the revision charmhub assigned to an
// uploaded resource from the resource-revisions listing: a header line
// followed by rows whose first column is the revision.
func parseResourceRevision(output []byte) (int, error) {
	lines := strings.Split(string(output), "\n")
	if len(lines) < 2 {
		return 0, errors.NotValidf("resource-revisions listing with %d line(s)", len(lines))
	}
	fields := strings.Fields(lines[1])
	if len(fields) == 0 {
		return 0, errors.NotValidf("resource-revisions listing without revision")
	}
	revision, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, errors.NewNotValid(err, "resource revision")
	}
	return revision, nil
}
