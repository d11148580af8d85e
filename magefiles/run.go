//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Runs gef with gef.toml, drawing the model given in GEF_MODEL when set.
func (Run) Gef() error {
	fmt.Println("Run gef...")
	args := []string{"run", ".", "-config", "gef.toml"}
	if model := env("GEF_MODEL"); model != "" {
		args = append(args, "-model", model)
	}
	if _, err := executeCmd("go", withArgs(args...), withStream()); err != nil {
		return err
	}
	return nil
}
