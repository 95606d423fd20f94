package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
	"github.com/viant/afs"

	cf "bytegraft/internal/classfile"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <class file or class name>",
	Short: "Print the structure and code of a class",
	Long: `Print a parsed class. The argument is read as a file when it ends in .class,
otherwise it is looked up by name on --classes.`,
	Args: cobra.ExactArgs(1),
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().StringSlice("classes", nil, "Class path entries: directories or .jar files (repeatable)")
	dumpCmd.Flags().Int("depth", 3, "Maximum depth of the structure dump")
	dumpCmd.Flags().Bool("code", true, "Print the instructions of every method")
	rootCmd.AddCommand(dumpCmd)
}

func runDump(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var (
		data []byte
		err  error
	)

	if strings.HasSuffix(args[0], ".class") {
		data, err = afs.New().DownloadWithURL(ctx, args[0])
	} else {
		classes, _ := classPath(cfg.GetStringSlice("classes"))
		data, err = classes.ClassBytes(ctx, args[0])
	}

	if err != nil {
		return err
	}

	c, err := cf.Parse(data)
	if err != nil {
		return err
	}

	return dump(cmd.OutOrStdout(), c, cfg.GetInt("depth"), cfg.GetBool("code"))
}

func dump(w io.Writer, c *cf.ClassFile, depth int, code bool) error {
	config := spew.ConfigState{
		Indent:                  "  ",
		DisablePointerAddresses: true,
		DisableCapacities:       true,
		SortKeys:                true,
		MaxDepth:                depth,
	}

	// Methods are listed below as instructions.
	shallow := *c
	shallow.Methods = nil
	config.Fdump(w, shallow)

	for _, m := range c.Methods {
		fmt.Fprintf(w, "\n%s%s access=0x%04x\n", m.Name, m.Desc, m.Access)

		if !code || m.Code == nil {
			continue
		}

		for _, line := range m.Code.Text() {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}

	return nil
}
