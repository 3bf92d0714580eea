package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/msto63/kinematics/pkg/core/config"
	"github.com/msto63/kinematics/pkg/core/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool

	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "kin",
	Short: "kinematics - Interpreter für Kinematik-Programme",
	Long: `kin führt Kinematik-Programme im Stil von Motion-Controllern aus.

Ein Programm besteht aus Zuweisungen an P-, Q-, I- und M-Variablen,
Ausdrücken mit Winkel- und Rechenfunktionen sowie IF/ELSE und WHILE.
Eingaben werden als Variablenbelegung übergeben, das Ergebnis ist die
Belegung nach einem Durchlauf des Programms.

Befehle:
  run      - Programm ausführen (lokal oder über --remote)
  check    - Programm nur lexikalisch prüfen
  tokens   - Tokenliste anzeigen
  serve    - Auswertungsdienst starten (gRPC, HTTP, WebSocket)
  history  - Gespeicherte Läufe anzeigen
  repl     - Interaktive Eingabe`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func Execute() error {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		printError("kin", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config-Datei (default: ./configs/kinematics.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose Output")
}

// setup loads the configuration and configures logging for every command
func setup(cmd *cobra.Command, args []string) error {
	var err error
	if cfgFile != "" {
		appConfig, err = config.Load(cfgFile)
	} else {
		appConfig, err = config.LoadFromEnv()
	}
	if err != nil {
		return fmt.Errorf("Config nicht geladen: %w", err)
	}

	level := appConfig.General.LogLevel
	if verbose {
		level = "debug"
	}
	logging.Configure(level, appConfig.General.LogFormat)
	return nil
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Fehler: %s: %v\n", msg, err)
}
