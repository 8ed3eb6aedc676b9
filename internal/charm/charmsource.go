// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package charm models a charm's source: the metadata.yaml and
// config.yaml schemas, the charm URL format, and the loader that reads
// a charm from a source directory or a built archive.
package charm

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/juju/errors"
)

const (
	metadataFile = "metadata.yaml"
	configFile   = "config.yaml"
)

// CharmSource is a charm as represented by its source directory or a
// built charm archive. It is constructed once by Load and read-only
// afterwards.
type CharmSource struct {
	path     string
	config   *Config
	metadata *Metadata
}

// Load reads a charm from path. A regular file is treated as a zip
// archive; anything else as a source directory. A missing path or a
// missing metadata.yaml yields a NotFound error, while a present but
// malformed document yields a NotValid error, so callers can tell
// "charm absent" from "charm malformed".
func Load(path string) (*CharmSource, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, errors.NewNotFound(err, fmt.Sprintf("charm source %q", path))
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	if info.IsDir() {
		return loadDir(path)
	}
	return loadZip(path)
}

// Path returns the location the charm was loaded from.
func (c *CharmSource) Path() string {
	return c.path
}

// Meta returns the charm's metadata.
func (c *CharmSource) Meta() *Metadata {
	return c.metadata
}

// Config returns the charm's config schema, or nil if the charm
// declares no configuration.
func (c *CharmSource) Config() *Config {
	return c.config
}

// ResolveResources merges caller-supplied resource values with the
// upstream defaults declared in metadata. Every declared resource must
// resolve to exactly one value; a resource with neither a supplied
// value nor an upstream source is a NotFound error naming the resource
// and the charm. Supplied values for undeclared resources are ignored,
// and an empty supplied value is treated as not supplied at all.
func (c *CharmSource) ResolveResources(supplied map[string]string) (map[string]string, error) {
	resolved := make(map[string]string)
	for name, res := range c.metadata.Resources {
		switch {
		case supplied[name] != "":
			resolved[name] = supplied[name]
		case res.UpstreamSource != "":
			resolved[name] = res.UpstreamSource
		default:
			return nil, errors.NotFoundf("resource %q for charm %q", name, c.metadata.Name)
		}
	}
	return resolved, nil
}

func loadDir(path string) (*CharmSource, error) {
	var config *Config
	cf, err := os.Open(filepath.Join(path, configFile))
	if err == nil {
		defer cf.Close()
		if config, err = ReadConfig(cf); err != nil {
			return nil, errors.Trace(err)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Trace(err)
	}

	mf, err := os.Open(filepath.Join(path, metadataFile))
	if os.IsNotExist(err) {
		return nil, errors.NewNotFound(err, fmt.Sprintf("charm at %q lacks %s", path, metadataFile))
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer mf.Close()
	metadata, err := ReadMeta(mf)
	if err != nil {
		return nil, errors.Trace(err)
	}

	return &CharmSource{path: path, config: config, metadata: metadata}, nil
}

func loadZip(path string) (*CharmSource, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.NewNotValid(err, fmt.Sprintf("opening charm archive %q", path))
	}
	defer archive.Close()

	var config *Config
	if data, err := zipEntry(archive, configFile); err == nil {
		if config, err = ReadConfig(data); err != nil {
			return nil, errors.Trace(err)
		}
	}

	data, err := zipEntry(archive, metadataFile)
	if err != nil {
		return nil, errors.NewNotFound(err, fmt.Sprintf("archive %q lacks %s", path, metadataFile))
	}
	metadata, err := ReadMeta(data)
	if err != nil {
		return nil, errors.Trace(err)
	}

	return &CharmSource{path: path, config: config, metadata: metadata}, nil
}

// zipEntry returns a reader over the contents of the named archive
// entry. The entry is read fully so the caller need not manage the
// archive's lifetime.
func zipEntry(archive *zip.ReadCloser, name string) (io.Reader, error) {
	for _, zf := range archive.File {
		if zf.Name != name {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return nil, errors.Trace(err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return bytes.NewReader(data), nil
	}
	return nil, errors.NotFoundf("entry %q", name)
}
