// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// charmpub builds a charm from source and publishes it, either to the
// legacy charm store (push, then release per channel) or to charmhub
// (upload with inline releases).
//
// Usage:
//
//	charmpub [options] <charm-path> <destination-url>
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo"

	"github.com/juju/charmpub/internal/charm"
	"github.com/juju/charmpub/internal/exec"
	"github.com/juju/charmpub/internal/publish"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var (
		channels    stringsValue
		resources   = make(resourcesValue)
		destructive bool
		charmhub    bool
		debug       bool
	)

	f := gnuflag.NewFlagSet("charmpub", gnuflag.ContinueOnError)
	f.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: charmpub [options] <charm-path> <destination-url>\n")
		f.PrintDefaults()
	}
	f.Var(&channels, "channel", "channel to release to (repeatable, released in order)")
	f.Var(resources, "resource", "resource value as name=value (repeatable)")
	f.BoolVar(&destructive, "destructive-mode", false, "build in place rather than in an isolated environment")
	f.BoolVar(&charmhub, "charmhub", false, "publish to charmhub instead of the charm store")
	f.BoolVar(&debug, "debug", false, "enable debug logging")
	if err := f.Parse(true, args); err != nil {
		return 2
	}
	if f.NArg() != 2 {
		f.Usage()
		return 2
	}

	level := "WARNING"
	if debug {
		level = "DEBUG"
	}
	if err := loggo.ConfigureLoggers("<root>=" + level); err != nil {
		fmt.Fprintf(os.Stderr, "charmpub: %v\n", err)
		return 1
	}

	path, url := f.Arg(0), f.Arg(1)
	source, err := charm.Load(path)
	if err != nil {
		if errors.IsNotFound(err) {
			fmt.Fprintf(os.Stderr, "charmpub: no charm at %q: %v\n", path, err)
		} else {
			fmt.Fprintf(os.Stderr, "charmpub: cannot load charm at %q: %v\n", path, err)
		}
		return 1
	}

	publisher := publish.NewPublisher(source, exec.NewRunner())
	var revURL string
	if charmhub {
		revURL, err = publisher.ToCharmHub(url, resources, channels, destructive)
	} else {
		revURL, err = publisher.ToCharmStore(url, resources, channels, destructive)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "charmpub: %v\n", err)
		return 1
	}
	fmt.Println(revURL)
	return 0
}

// stringsValue accumulates repeated flag occurrences in order.
type stringsValue []string

func (v *stringsValue) Set(s string) error {
	*v = append(*v, s)
	return nil
}

func (v *stringsValue) String() string {
	return strings.Join(*v, ",")
}

// resourcesValue accumulates repeated name=value flag occurrences.
type resourcesValue map[string]string

func (v resourcesValue) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return errors.NotValidf("resource %q", s)
	}
	v[name] = value
	return nil
}

func (v resourcesValue) String() string {
	pairs := make([]string, 0, len(v))
	for name, value := range v {
		pairs = append(pairs, name+"="+value)
	}
	return strings.Join(pairs, ",")
}
