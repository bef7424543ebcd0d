package main

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/nivl-labs/packengine/pack"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newPackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pack REPO COMMIT-SHA...",
		Short: "build a pack containing everything reachable from the given commits and persist it into REPO",
		Args:  cobra.MinimumNArgs(2),
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return packCmd(cmd.OutOrStdout(), args[0], args[1:])
	}
	return cmd
}

func packCmd(out io.Writer, repoRoot string, commitSHAs []string) error {
	fs := afero.NewOsFs()
	e, err := newEngine(fs, repoRoot)
	if err != nil {
		return err
	}

	roots := make([][20]byte, 0, len(commitSHAs))
	for _, sha := range commitSHAs {
		decoded, err := hex.DecodeString(sha)
		if err != nil || len(decoded) != 20 {
			return fmt.Errorf("%q is not a 40-character hex commit id", sha)
		}
		var oid [20]byte
		copy(oid[:], decoded)
		roots = append(roots, oid)
	}

	store, err := e.store(repoRoot)
	if err != nil {
		return err
	}

	builder := pack.NewBuilder(store, e.codec, e.hasher)
	data, err := builder.Build(roots)
	if err != nil {
		return fmt.Errorf("building pack: %w", err)
	}

	if err := store.PersistPack(data); err != nil {
		return fmt.Errorf("persisting pack: %w", err)
	}

	fmt.Fprintf(out, "built and persisted a %d-byte pack from %d root commit(s) into %s/objects/pack\n", len(data), len(roots), repoRoot)
	return nil
}
