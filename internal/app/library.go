package app

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/automice/internal/macro"
	"github.com/blackwell-systems/automice/internal/output"
	"github.com/blackwell-systems/automice/internal/watcher"
)

var (
	importName   string
	exportOutput string

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List macros in the library",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}

	showCmd = &cobra.Command{
		Use:   "show <name|file>",
		Short: "Show the events of a macro",
		Long: `Print a summary and every event of a macro. The argument is read as a
file when one exists at that path, otherwise as a library name.`,
		Args: cobra.ExactArgs(1),
		RunE: runShow,
	}

	deleteCmd = &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a macro from the library",
		Args:  cobra.ExactArgs(1),
		RunE:  runDelete,
	}

	importCmd = &cobra.Command{
		Use:   "import <file>",
		Short: "Add a JSON macro file to the library",
		Long: `Validate a macro file and store it in the library. The macro is named
after the file (login.json becomes "login") unless --name is given. An
existing macro with the same name is replaced.`,
		Example: `  automice import login.json
  automice import ~/Downloads/recording.json --name checkout`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	exportCmd = &cobra.Command{
		Use:     "export <name>",
		Short:   "Write a library macro to a JSON file",
		Example: `  automice export login -o login.json`,
		Args:    cobra.ExactArgs(1),
		RunE:    runExport,
	}
)

func init() {
	importCmd.Flags().StringVar(&importName, "name", "", "library name (default: file name without extension)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "destination JSON file")
	exportCmd.MarkFlagRequired("output")
}

func runList(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	st, err := env.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	macros, err := st.ListMacros()
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), output.RenderMacroTable(macros))
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}

	var log macro.Log
	if isFile(args[0]) {
		log, err = macro.Load(args[0])
		if err != nil {
			return err
		}
	} else {
		st, err := env.openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if _, log, err = st.GetMacro(args[0]); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, output.RenderSummary(log))
	fmt.Fprintln(out)
	fmt.Fprint(out, output.RenderEventTable(log))
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	st, err := env.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.DeleteMacro(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted macro %q\n", args[0])
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}

	log, err := macro.Load(args[0])
	if err != nil {
		return err
	}

	name := importName
	if name == "" {
		name = watcher.MacroName(args[0])
	}
	source, err := filepath.Abs(args[0])
	if err != nil {
		source = args[0]
	}

	st, err := env.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	m, err := st.SaveMacro(name, log, source)
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %q (%d events)\n", m.Name, m.EventCount)
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	st, err := env.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	_, log, err := st.GetMacro(args[0])
	if err != nil {
		return err
	}
	if err := macro.Save(exportOutput, log); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %q to %s\n", args[0], exportOutput)
	return nil
}
