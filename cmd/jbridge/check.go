package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/chazu/jbridge/binding"
	"github.com/chazu/jbridge/jvm"
	"github.com/chazu/jbridge/manifest"
)

// runCheck processes the `jbridge check` subcommand.
// Usage:
//
//	jbridge check                    # tables from jbridge.toml
//	jbridge check a.toml b.jbb       # explicit tables
//	jbridge check -resolve a.toml    # also resolve against the demo runtime
func runCheck(m *manifest.Manifest, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	resolve := fs.Bool("resolve", false, "Resolve every member against the demo runtime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	paths, err := tablePaths(m, fs.Args())
	if err != nil {
		return err
	}

	var errs []error
	var tables []*binding.Table
	for _, path := range paths {
		t, err := binding.Load(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		printf(out, "%s: %d classes\n", path, len(t.Classes))
		tables = append(tables, t)
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	if !*resolve {
		return nil
	}

	vm, _, err := newDemoVM(m)
	if err != nil {
		return err
	}
	defer vm.Close()
	return vm.With(func(env *jvm.Env) error {
		for i, t := range tables {
			t.Apply()
			if err := t.Resolve(env); err != nil {
				return fmt.Errorf("%s: %w", paths[i], err)
			}
			if err := t.Verify(env); err != nil {
				return fmt.Errorf("%s: %w", paths[i], err)
			}
			printf(out, "%s: resolved\n", paths[i])
		}
		return nil
	})
}
