// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"flag"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Test groups test targets (all, unit, golden).
type Test mg.Namespace

// goldenPkg holds the compiled-clause golden fixtures.
const goldenPkg = "./pkg/types"

// All runs every test.
func (Test) All() error {
	return sh.RunV(binGo, "test", "-v", "./...")
}

// Unit runs the package tests. Flags after the target name:
//
//	--race         enable the race detector
//	--run PATTERN  only run tests matching PATTERN
func (Test) Unit() error {
	fs := flag.NewFlagSet("test:unit", flag.ContinueOnError)
	race := fs.Bool("race", false, "enable the race detector")
	run := fs.String("run", "", "only run tests matching pattern")
	parseTargetFlags(fs)

	args := []string{"test", "-count=1"}
	if *race {
		args = append(args, "-race")
	}
	if *run != "" {
		args = append(args, "-run", *run)
	}
	args = append(args, "./...")
	return sh.RunV(binGo, args...)
}

// Golden rewrites the golden SQL fixtures from the current compiler output.
func (Test) Golden() error {
	return sh.RunV(binGo, "test", goldenPkg, "-run", "Golden", "-update")
}
