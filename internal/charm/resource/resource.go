// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package resource describes the resources a charm declares in its
// metadata.yaml file.
package resource

import (
	"github.com/juju/errors"
)

// Type enumerates the recognized resource types.
type Type string

const (
	// TypeFile is a plain file attached to the charm.
	TypeFile Type = "file"

	// TypeOCIImage is a container image. Only resources of this type
	// are pulled locally before publishing.
	TypeOCIImage Type = "oci-image"

	// TypePypi is a Python package reference.
	TypePypi Type = "pypi"

	// TypeURL is an arbitrary URL the charm fetches at runtime.
	TypeURL Type = "url"
)

// Types lists the recognized resource types.
var Types = []Type{
	TypeFile,
	TypeOCIImage,
	TypePypi,
	TypeURL,
}

// ParseType converts a string to a Type, failing on unrecognized values.
func ParseType(value string) (Type, error) {
	t := Type(value)
	if err := t.Validate(); err != nil {
		return "", errors.Trace(err)
	}
	return t, nil
}

// String implements fmt.Stringer.
func (t Type) String() string {
	return string(t)
}

// Validate ensures the type is a recognized one.
func (t Type) Validate() error {
	switch t {
	case TypeFile, TypeOCIImage, TypePypi, TypeURL:
		return nil
	}
	return errors.NotValidf("resource type %q", t)
}

// Resource holds the declaration of a single charm resource.
type Resource struct {
	// Type identifies how the resource value is interpreted.
	Type Type

	// Description is the human-readable description of the resource.
	Description string

	// UpstreamSource is the default source for the resource (a
	// location or image tag, depending on Type), used when the caller
	// supplies no value. Empty means no default.
	UpstreamSource string
}

// Validate checks the resource declaration for consistency.
func (r Resource) Validate() error {
	if err := r.Type.Validate(); err != nil {
		return errors.Trace(err)
	}
	return nil
}
