// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package charm_test

import (
	"strings"

	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/charmpub/internal/charm"
	"github.com/juju/charmpub/internal/charm/resource"
)

type MetaSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&MetaSuite{})

const minimalMeta = `
name: myapp
description: A longer description.
summary: One line.
`

const fullMeta = `
name: myapp
description: A longer description.
summary: One line.
containers:
  workload:
    resource: img
resources:
  img:
    type: oci-image
    description: workload image
    upstream-source: ubuntu:20.04
  licence:
    type: file
    description: licence file
requires:
  db:
    interface: pgsql
    scope: container
    schema: db-schema
    versions: [v1, v2]
provides:
  website:
    interface: http
`

func (s *MetaSuite) TestReadMetaMinimal(c *gc.C) {
	meta, err := charm.ReadMeta(strings.NewReader(minimalMeta))
	c.Assert(err, jc.ErrorIsNil)

	c.Check(meta.Name, gc.Equals, "myapp")
	c.Check(meta.Description, gc.Equals, "A longer description.")
	c.Check(meta.Summary, gc.Equals, "One line.")
	c.Check(meta.Containers, gc.HasLen, 0)
	c.Check(meta.Resources, gc.HasLen, 0)
	c.Check(meta.Requires, gc.HasLen, 0)
	c.Check(meta.Provides, gc.HasLen, 0)
}

func (s *MetaSuite) TestReadMetaEmptySections(c *gc.C) {
	meta, err := charm.ReadMeta(strings.NewReader(minimalMeta + `
containers: {}
resources: {}
requires: {}
provides: {}
`))
	c.Assert(err, jc.ErrorIsNil)

	c.Check(meta.Containers, gc.HasLen, 0)
	c.Check(meta.Resources, gc.HasLen, 0)
	c.Check(meta.Requires, gc.HasLen, 0)
	c.Check(meta.Provides, gc.HasLen, 0)
}

func (s *MetaSuite) TestReadMetaFull(c *gc.C) {
	meta, err := charm.ReadMeta(strings.NewReader(fullMeta))
	c.Assert(err, jc.ErrorIsNil)

	c.Check(meta.Containers, jc.DeepEquals, map[string]charm.Container{
		"workload": {Resource: "img"},
	})
	c.Check(meta.Resources, jc.DeepEquals, map[string]resource.Resource{
		"img": {
			Type:           resource.TypeOCIImage,
			Description:    "workload image",
			UpstreamSource: "ubuntu:20.04",
		},
		"licence": {
			Type:        resource.TypeFile,
			Description: "licence file",
		},
	})
	c.Check(meta.Requires, jc.DeepEquals, map[string]charm.Relation{
		"db": {
			Interface: "pgsql",
			Scope:     charm.ScopeContainer,
			Schema:    "db-schema",
			Versions:  []string{"v1", "v2"},
		},
	})
	c.Check(meta.Provides, jc.DeepEquals, map[string]charm.Relation{
		"website": {
			Interface: "http",
			Scope:     charm.ScopeGlobal,
		},
	})
}

func (s *MetaSuite) TestReadMetaUnknownTopLevelField(c *gc.C) {
	_, err := charm.ReadMeta(strings.NewReader(minimalMeta + "maintainer: someone\n"))

	c.Check(err, jc.Satisfies, errors.IsNotValid)
	c.Check(err, gc.ErrorMatches, `.*unknown key.*maintainer.*`)
}

func (s *MetaSuite) TestReadMetaUnknownNestedField(c *gc.C) {
	_, err := charm.ReadMeta(strings.NewReader(minimalMeta + `
resources:
  img:
    type: oci-image
    description: workload image
    auto-fetch: true
`))

	c.Check(err, jc.Satisfies, errors.IsNotValid)
	c.Check(err, gc.ErrorMatches, `.*unknown key.*auto-fetch.*`)
}

func (s *MetaSuite) TestReadMetaUnknownResourceType(c *gc.C) {
	_, err := charm.ReadMeta(strings.NewReader(minimalMeta + `
resources:
  img:
    type: tarball
    description: workload image
`))

	c.Check(err, jc.Satisfies, errors.IsNotValid)
}

func (s *MetaSuite) TestReadMetaUnknownScope(c *gc.C) {
	_, err := charm.ReadMeta(strings.NewReader(minimalMeta + `
requires:
  db:
    interface: pgsql
    scope: cluster
`))

	c.Check(err, jc.Satisfies, errors.IsNotValid)
}

func (s *MetaSuite) TestReadMetaMissingName(c *gc.C) {
	_, err := charm.ReadMeta(strings.NewReader(`
description: A longer description.
summary: One line.
`))

	c.Check(err, jc.Satisfies, errors.IsNotValid)
}

func (s *MetaSuite) TestReadMetaMalformedYAML(c *gc.C) {
	_, err := charm.ReadMeta(strings.NewReader("name: [unclosed"))

	c.Check(err, jc.Satisfies, errors.IsNotValid)
}

func (s *MetaSuite) TestValidateOK(c *gc.C) {
	meta, err := charm.ReadMeta(strings.NewReader(fullMeta))
	c.Assert(err, jc.ErrorIsNil)

	c.Check(meta.Validate(), jc.ErrorIsNil)
}

func (s *MetaSuite) TestValidateDanglingContainerResource(c *gc.C) {
	meta, err := charm.ReadMeta(strings.NewReader(minimalMeta + `
containers:
  workload:
    resource: img
`))
	c.Assert(err, jc.ErrorIsNil)

	err = meta.Validate()
	c.Check(err, jc.Satisfies, errors.IsNotValid)
	c.Check(err, gc.ErrorMatches, `container "workload" references undeclared resource "img" not valid`)
}

func (s *MetaSuite) TestValidateBadName(c *gc.C) {
	meta, err := charm.ReadMeta(strings.NewReader(`
name: My App!
description: d
summary: s
`))
	c.Assert(err, jc.ErrorIsNil)

	err = meta.Validate()
	c.Check(err, jc.Satisfies, errors.IsNotValid)
	c.Check(err, gc.ErrorMatches, `charm name "My App!" not valid`)
}
