package main

import (
	"fmt"
	"io"

	"github.com/nivl-labs/packengine/pack"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newUnpackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unpack PACK DEST",
		Short: "parse and resolve a pack, writing every object as a loose object under DEST",
		Args:  cobra.ExactArgs(2),
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return unpackCmd(cmd.OutOrStdout(), args[0], args[1])
	}
	return cmd
}

func unpackCmd(out io.Writer, packPath, dest string) error {
	fs := afero.NewOsFs()
	e, err := newEngine(fs, dest)
	if err != nil {
		return err
	}

	data, err := afero.ReadFile(fs, packPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", packPath, err)
	}

	parser := pack.NewParser(e.codec, e.hasher)
	result, err := parser.Parse(data)
	if err != nil {
		return fmt.Errorf("%s: %w", packPath, err)
	}

	store, err := e.store(dest)
	if err != nil {
		return err
	}
	resolverCache, err := e.resolverCache()
	if err != nil {
		return err
	}

	resolver := pack.NewResolver(result.Entries, store, e.hasher, resolverCache)
	if err := resolver.Resolve(); err != nil {
		return fmt.Errorf("%s: %w", packPath, err)
	}

	written := 0
	for _, entry := range result.Entries {
		if err := store.WriteLooseObject(entry.SHA1, entry.Kind, entry.Payload); err != nil {
			return fmt.Errorf("writing %x: %w", entry.SHA1, err)
		}
		written++
	}

	fmt.Fprintf(out, "%s: wrote %d loose objects to %s\n", packPath, written, dest)
	return nil
}
