//go:build mage

package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Downloads the modules and builds the gef binary into bin/.
func (Build) Engine() error {
	if _, err := executeCmd("go", withArgs("mod", "download")); err != nil {
		return err
	}
	if _, err := executeCmd("go", withArgs("build", "-o", "bin/gef", "."), withStream()); err != nil {
		return err
	}
	return nil
}

// Translates the embedded WGSL programs to SPIR-V for the Vulkan backend.
// Needs naga on the PATH.
func (Build) Shaders() error {
	programs, err := filepath.Glob("engine/renderer/shaders/assets/*.wgsl")
	if err != nil {
		return err
	}
	if err := os.MkdirAll("assets/shaders/gef", 0o755); err != nil {
		return err
	}
	for _, p := range programs {
		out := filepath.Join("assets/shaders/gef", trimExt(filepath.Base(p))+".spv")
		if _, err := executeCmd("naga", withArgs(p, out), withStream()); err != nil {
			return err
		}
	}
	return nil
}
