// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package charm

import (
	"io"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/names/v5"
	"github.com/juju/schema"
	"github.com/juju/utils/v4"
	"gopkg.in/yaml.v2"

	"github.com/juju/charmpub/internal/charm/resource"
)

// Scope describes where a relation endpoint applies.
type Scope string

const (
	ScopeGlobal    Scope = "global"
	ScopeContainer Scope = "container"
)

// Relation represents a single relation endpoint defined in the charm
// metadata.yaml file.
type Relation struct {
	// Interface names the relation interface.
	Interface string

	// Scope is the relation scope, global unless stated otherwise.
	Scope Scope

	// Schema optionally references the relation data schema.
	Schema string

	// Versions lists the interface versions supported, in order.
	Versions []string
}

// Container represents a workload container declared by the charm. The
// named resource backs the container image; the reference is resolved
// at publish time, not at load time.
type Container struct {
	Resource string
}

// Metadata holds the content of a charm's metadata.yaml file.
type Metadata struct {
	// Name is the machine-friendly name of the charm. It is used
	// verbatim in artifact file names.
	Name string

	// Description is the long-form description of the charm.
	Description string

	// Summary is the one-line summary of the charm.
	Summary string

	// Containers maps container name to its declaration.
	Containers map[string]Container

	// Resources maps resource name to its declaration.
	Resources map[string]resource.Resource

	// Requires maps relation name to the endpoints this charm needs.
	Requires map[string]Relation

	// Provides maps relation name to the endpoints this charm offers.
	Provides map[string]Relation
}

var metadataSchema = schema.StrictFieldMap(
	schema.Fields{
		"name":        schema.String(),
		"description": schema.String(),
		"summary":     schema.String(),
		"containers":  schema.StringMap(schema.Any()),
		"resources":   schema.StringMap(schema.Any()),
		"requires":    schema.StringMap(schema.Any()),
		"provides":    schema.StringMap(schema.Any()),
	},
	schema.Defaults{
		"containers": schema.Omit,
		"resources":  schema.Omit,
		"requires":   schema.Omit,
		"provides":   schema.Omit,
	},
)

var containerSchema = schema.StrictFieldMap(
	schema.Fields{
		"resource": schema.String(),
	},
	schema.Defaults{},
)

var resourceSchema = schema.StrictFieldMap(
	schema.Fields{
		"type": schema.OneOf(
			schema.Const(resource.TypeFile.String()),
			schema.Const(resource.TypeOCIImage.String()),
			schema.Const(resource.TypePypi.String()),
			schema.Const(resource.TypeURL.String()),
		),
		"description":     schema.String(),
		"upstream-source": schema.String(),
	},
	schema.Defaults{
		"upstream-source": schema.Omit,
	},
)

var relationSchema = schema.StrictFieldMap(
	schema.Fields{
		"interface": schema.String(),
		"scope": schema.OneOf(
			schema.Const(string(ScopeGlobal)),
			schema.Const(string(ScopeContainer)),
		),
		"schema":   schema.String(),
		"versions": schema.List(schema.String()),
	},
	schema.Defaults{
		"scope":    schema.Omit,
		"schema":   schema.Omit,
		"versions": schema.Omit,
	},
)

// ReadMeta reads the content of a metadata.yaml file and returns its
// representation. Unknown fields anywhere in the document are rejected.
func ReadMeta(r io.Reader) (*Metadata, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Trace(err)
	}
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.NewNotValid(err, "metadata")
	}
	// yaml.v2 decodes mappings with interface{} keys at every level;
	// conform the whole document to string keys before coercion.
	conformed, err := utils.ConformYAML(raw)
	if err != nil {
		return nil, errors.NewNotValid(err, "metadata")
	}
	v, err := metadataSchema.Coerce(conformed, nil)
	if err != nil {
		return nil, errors.NewNotValid(err, "metadata")
	}
	m := v.(map[string]interface{})

	meta := &Metadata{
		Name:        m["name"].(string),
		Description: m["description"].(string),
		Summary:     m["summary"].(string),
	}
	if meta.Containers, err = parseContainers(m["containers"]); err != nil {
		return nil, errors.NewNotValid(err, "metadata")
	}
	if meta.Resources, err = parseMetaResources(m["resources"]); err != nil {
		return nil, errors.NewNotValid(err, "metadata")
	}
	if meta.Requires, err = parseRelations(m["requires"]); err != nil {
		return nil, errors.NewNotValid(err, "metadata")
	}
	if meta.Provides, err = parseRelations(m["provides"]); err != nil {
		return nil, errors.NewNotValid(err, "metadata")
	}
	return meta, nil
}

// Validate checks the metadata for internal consistency: the charm name
// must be usable as a path component and every container must reference
// a declared resource. The loader does not call this; the publish
// pipelines do, before invoking any external tool.
func (m *Metadata) Validate() error {
	if !names.IsValidApplication(m.Name) {
		return errors.NotValidf("charm name %q", m.Name)
	}
	declared := set.NewStrings()
	for name := range m.Resources {
		declared.Add(name)
	}
	for name, container := range m.Containers {
		if !declared.Contains(container.Resource) {
			return errors.NotValidf(
				"container %q references undeclared resource %q", name, container.Resource)
		}
	}
	for name, res := range m.Resources {
		if err := res.Validate(); err != nil {
			return errors.Annotatef(err, "resource %q", name)
		}
	}
	return nil
}

func parseContainers(data interface{}) (map[string]Container, error) {
	result := make(map[string]Container)
	if data == nil {
		return result, nil
	}
	for name, val := range data.(map[string]interface{}) {
		v, err := containerSchema.Coerce(val, []string{"containers", name})
		if err != nil {
			return nil, errors.Trace(err)
		}
		cm := v.(map[string]interface{})
		result[name] = Container{Resource: cm["resource"].(string)}
	}
	return result, nil
}

func parseMetaResources(data interface{}) (map[string]resource.Resource, error) {
	result := make(map[string]resource.Resource)
	if data == nil {
		return result, nil
	}
	for name, val := range data.(map[string]interface{}) {
		v, err := resourceSchema.Coerce(val, []string{"resources", name})
		if err != nil {
			return nil, errors.Trace(err)
		}
		rm := v.(map[string]interface{})
		kind, err := resource.ParseType(rm["type"].(string))
		if err != nil {
			return nil, errors.Trace(err)
		}
		res := resource.Resource{
			Type:        kind,
			Description: rm["description"].(string),
		}
		if source, ok := rm["upstream-source"]; ok {
			res.UpstreamSource = source.(string)
		}
		result[name] = res
	}
	return result, nil
}

func parseRelations(data interface{}) (map[string]Relation, error) {
	result := make(map[string]Relation)
	if data == nil {
		return result, nil
	}
	for name, val := range data.(map[string]interface{}) {
		v, err := relationSchema.Coerce(val, []string{"relations", name})
		if err != nil {
			return nil, errors.Trace(err)
		}
		rm := v.(map[string]interface{})
		relation := Relation{
			Interface: rm["interface"].(string),
			Scope:     ScopeGlobal,
		}
		if scope, ok := rm["scope"]; ok {
			relation.Scope = Scope(scope.(string))
		}
		if ref, ok := rm["schema"]; ok {
			relation.Schema = ref.(string)
		}
		if versions, ok := rm["versions"]; ok {
			for _, version := range versions.([]interface{}) {
				relation.Versions = append(relation.Versions, version.(string))
			}
		}
		result[name] = relation
	}
	return result, nil
}
