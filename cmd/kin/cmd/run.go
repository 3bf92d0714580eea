package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/msto63/kinematics/foundation/kinematic/bindings"
	"github.com/msto63/kinematics/internal/evaluator/server"
	"github.com/msto63/kinematics/internal/evaluator/service"
	"github.com/msto63/kinematics/internal/evaluator/store"
	"github.com/msto63/kinematics/pkg/core/logging"
	"github.com/spf13/cobra"
)

var (
	runVarsFile string
	runSets     []string
	runFormat   string
	runOutput   string
	runRemote   string
	runRecord   bool
	runMaxSteps int
	runTimeout  time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run <programm|->",
	Short: "Führt ein Programm aus",
	Long: `Führt ein Kinematik-Programm einmal aus und zeigt die Variablenbelegung
nach dem Lauf an.

Die Startbelegung kommt aus einer Datei (JSON, YAML oder TOML, erkannt an
der Endung) und/oder aus --set Zuweisungen. Vektoren werden mit Kommas
angegeben.

Beispiele:
  kin run prog.pmc --set P1=3 --set P2=4
  kin run prog.pmc --vars start.yaml --format json
  kin run prog.pmc --vars start.toml --output ergebnis.yaml
  cat prog.pmc | kin run - --set Q2=1,2,3
  kin run prog.pmc --remote localhost:9300 --record`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runVarsFile, "vars", "", "Datei mit Startbelegung (json, yaml, toml)")
	runCmd.Flags().StringArrayVar(&runSets, "set", nil, "Variable setzen, z.B. P1=3 oder Q2=1,2,3")
	runCmd.Flags().StringVarP(&runFormat, "format", "f", "table", "Ausgabeformat: table, json, yaml, toml")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "Ergebnis in Datei schreiben (Format nach Endung)")
	runCmd.Flags().StringVar(&runRemote, "remote", "", "Auswertung über den gRPC-Dienst (host:port)")
	runCmd.Flags().BoolVar(&runRecord, "record", false, "Lauf in der Historie speichern")
	runCmd.Flags().IntVar(&runMaxSteps, "max-steps", 0, "Maximale Anzahl ausgeführter Anweisungen (0 = Config)")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "Zeitlimit pro Lauf (0 = Config)")
}

func runRun(cmd *cobra.Command, args []string) error {
	lines, err := readProgram(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}
	vars, err := loadVariables(runVarsFile, runSets)
	if err != nil {
		return err
	}

	req := &service.Request{Program: lines, Variables: vars, Record: runRecord}

	var resp *service.Response
	if runRemote != "" {
		resp, err = evaluateRemote(cmd.Context(), req)
	} else {
		resp, err = evaluateLocal(cmd.Context(), req)
	}
	if err != nil {
		return err
	}

	if runOutput != "" {
		if err := bindings.SaveFile(runOutput, resp.Variables); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if err := writeVariables(out, resp.Variables, runFormat); err != nil {
		return err
	}
	if strings.EqualFold(runFormat, "table") {
		info := fmt.Sprintf("Dauer: %s", resp.Duration.Round(time.Microsecond))
		if resp.RunID != "" {
			info += "  Lauf: " + resp.RunID
		}
		if resp.Cached {
			info += "  (Cache)"
		}
		fmt.Fprintln(out, dimStyle.Render(info))
	}
	return nil
}

// serviceConfig builds the evaluation service config from the app config
func serviceConfig() service.Config {
	cfg := service.Config{
		MaxSteps:      appConfig.Engine.MaxSteps,
		Timeout:       appConfig.Engine.EvalTimeout.Duration,
		CacheMaxItems: appConfig.Engine.CacheMaxItems,
		CacheTTL:      appConfig.Engine.CacheTTL.Duration,
		EngineLogger:  logging.NewSimpleLogger("kinematic"),
	}
	if runMaxSteps > 0 {
		cfg.MaxSteps = runMaxSteps
	}
	if runTimeout > 0 {
		cfg.Timeout = runTimeout
	}
	return cfg
}

func evaluateLocal(ctx context.Context, req *service.Request) (*service.Response, error) {
	var runs store.RunStore
	if req.Record {
		s, err := store.NewSQLiteRunStore(store.SQLiteConfig{Path: appConfig.Store.Path})
		if err != nil {
			return nil, err
		}
		runs = s
	}

	svc := service.NewService(serviceConfig(), runs)
	defer svc.Close()
	return svc.Evaluate(ctx, req)
}

func evaluateRemote(ctx context.Context, req *service.Request) (*service.Response, error) {
	client, err := server.Dial(runRemote)
	if err != nil {
		return nil, fmt.Errorf("Dienst nicht erreichbar: %w\nStarte den Dienst mit: kin serve", err)
	}
	defer client.Close()

	timeout := appConfig.Engine.EvalTimeout.Duration
	if runTimeout > 0 {
		timeout = runTimeout
	}
	// Allow for the round trip on top of the evaluation limit
	ctx, cancel := context.WithTimeout(ctx, timeout+5*time.Second)
	defer cancel()

	return client.Evaluate(ctx, req)
}
