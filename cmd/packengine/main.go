package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "packengine",
		Short:         "inspect, unpack, and build git packfiles",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.AddCommand(newVerifyCmd())
	cmd.AddCommand(newUnpackCmd())
	cmd.AddCommand(newPackCmd())

	return cmd
}
