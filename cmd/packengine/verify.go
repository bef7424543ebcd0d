package main

import (
	"fmt"
	"io"

	"github.com/nivl-labs/packengine/pack"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify PACK",
		Short: "parse and resolve a pack, reporting the first error found",
		Args:  cobra.ExactArgs(1),
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return verifyCmd(cmd.OutOrStdout(), args[0])
	}
	return cmd
}

func verifyCmd(out io.Writer, packPath string) error {
	e, err := newEngine(afero.NewOsFs(), ".")
	if err != nil {
		return err
	}

	data, err := afero.ReadFile(e.fs, packPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", packPath, err)
	}

	parser := pack.NewParser(e.codec, e.hasher)
	result, err := parser.Parse(data)
	if err != nil {
		return fmt.Errorf("%s: %w", packPath, err)
	}

	store, err := e.store(".")
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

	fmt.Fprintf(out, "%s: ok, %d entries, checksum %x\n", packPath, len(result.Entries), result.Checksum)
	return nil
}
