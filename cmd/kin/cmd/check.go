package cmd

import (
	"errors"
	"fmt"

	"github.com/msto63/kinematics/foundation/kinematic"
	"github.com/msto63/kinematics/foundation/kinematic/parser"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check <programm>...",
	Short: "Prüft Programme lexikalisch",
	Long: `Zerlegt ein oder mehrere Programme in Tokens und meldet unbekannte oder
gesperrte Befehle (z.B. ENABLE PLC) mit Zeile und Spalte.

Fehler in der Ablaufstruktur zeigen sich erst beim Ausführen (kin run).

Beispiele:
  kin check prog.pmc
  kin check programme/*.pmc`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	failed := 0

	for _, path := range args {
		lines, err := readProgram(path, cmd.InOrStdin())
		if err != nil {
			return err
		}
		program, err := kinematic.Compile(lines, kinematic.Options{})
		if err != nil {
			failed++
			var lexErr *parser.LexError
			if errors.As(err, &lexErr) {
				fmt.Fprintf(out, "  %s %s:%d:%d: unbekanntes Token %q\n",
					failStyle.Render("[-]"), path, lexErr.Line, lexErr.Column, lexErr.Lexeme)
				continue
			}
			fmt.Fprintf(out, "  %s %s: %v\n", failStyle.Render("[-]"), path, err)
			continue
		}
		fmt.Fprintf(out, "  %s %s (%d Zeilen, %d Tokens)\n",
			okStyle.Render("[+]"), path, len(program.Lines()), len(program.Tokens()))
	}

	if failed > 0 {
		return fmt.Errorf("%d von %d Programm(en) fehlerhaft", failed, len(args))
	}
	return nil
}
