//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Builds the backend probing tool.
func (Build) Probe() error {
	if _, err := executeCmd("go", withArgs("build", "-o", "bin/vega-probe", "."), withStream()); err != nil {
		return err
	}
	return nil
}

// Builds the offscreen capture testbed.
func (Build) Testbed() error {
	if _, err := executeCmd("go", withArgs("build", "-o", "bin/vega-testbed", "./testbed"), withStream()); err != nil {
		return err
	}
	return nil
}

// Builds everything.
func (Build) All() {
	mg.Deps(Build.Probe, Build.Testbed)
}
