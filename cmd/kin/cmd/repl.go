package cmd

import (
	"github.com/msto63/kinematics/internal/tui/repl"
	"github.com/spf13/cobra"
)

var (
	replVarsFile string
	replSets     []string
)

var replCmd = &cobra.Command{
	Use:   "repl [programm]",
	Short: "Startet die interaktive Eingabe",
	Long: `Startet eine Terminal-UI zum zeilenweisen Schreiben von Programmen.

Nach jeder Zeile wird das gesamte Programm mit der Startbelegung neu
ausgeführt und die Variablentabelle aktualisiert. Fehler werden mit der
betroffenen Zeile angezeigt.

Tastenkuerzel:
  Enter       Zeile anfügen und ausführen
  Up/Down     Frühere Eingaben
  Ctrl+D      Letzte Zeile löschen
  Ctrl+R      Programm zurücksetzen
  PgUp/PgDn   Scrollen
  Ctrl+C/Esc  Beenden`,
	Args: cobra.MaximumNArgs(1),
	RunE: runREPL,
}

func init() {
	rootCmd.AddCommand(replCmd)

	replCmd.Flags().StringVar(&replVarsFile, "vars", "", "Datei mit Startbelegung (json, yaml, toml)")
	replCmd.Flags().StringArrayVar(&replSets, "set", nil, "Variable setzen, z.B. P1=3 oder Q2=1,2,3")
}

func runREPL(cmd *cobra.Command, args []string) error {
	vars, err := loadVariables(replVarsFile, replSets)
	if err != nil {
		return err
	}

	cfg := repl.DefaultConfig()
	cfg.Initial = vars
	if appConfig.Engine.MaxSteps > 0 {
		cfg.MaxSteps = appConfig.Engine.MaxSteps
	}
	if len(args) == 1 {
		lines, err := readProgram(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}
		cfg.Program = lines
	}

	return repl.Run(cfg)
}
