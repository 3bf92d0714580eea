package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/msto63/kinematics/internal/evaluator/server"
	"github.com/msto63/kinematics/internal/evaluator/service"
	"github.com/msto63/kinematics/internal/evaluator/store"
	"github.com/msto63/kinematics/pkg/core/logging"
	"github.com/spf13/cobra"
)

var (
	serveHost     string
	serveGRPCPort int
	serveHTTPPort int
	serveNoStore  bool
)

const pruneInterval = time.Hour

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Startet den Auswertungsdienst",
	Long: `Startet den Auswertungsdienst für Kinematik-Programme.

Endpunkte:
  gRPC       kinematics.v1.Evaluator/Evaluate und Health (default :9300)
  HTTP       POST /v1/evaluate, GET /v1/runs, GET /v1/stats, GET /healthz (default :8300)
  WebSocket  /v1/ws

Mit aktivierter Historie ([store] enabled = true) werden Läufe in SQLite
gespeichert und nach der Aufbewahrungsdauer gelöscht.

Beispiele:
  kin serve
  kin serve --http-port 8080 --no-store
  KIN_STORE_ENABLED=true kin serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen-Adresse (default: Config)")
	serveCmd.Flags().IntVar(&serveGRPCPort, "grpc-port", 0, "gRPC-Port (default: Config)")
	serveCmd.Flags().IntVar(&serveHTTPPort, "http-port", 0, "HTTP-Port (default: Config)")
	serveCmd.Flags().BoolVar(&serveNoStore, "no-store", false, "Historie deaktivieren")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	logger := logging.New("kin-serve")

	var runs store.RunStore
	if appConfig.Store.Enabled && !serveNoStore {
		s, err := store.NewSQLiteRunStore(store.SQLiteConfig{Path: appConfig.Store.Path})
		if err != nil {
			return err
		}
		runs = s
		logger.Info("Run history enabled", "path", appConfig.Store.Path, "retention", appConfig.Store.Retention.String())
	}

	svcCfg := service.Config{
		MaxSteps:      appConfig.Engine.MaxSteps,
		Timeout:       appConfig.Engine.EvalTimeout.Duration,
		CacheMaxItems: appConfig.Engine.CacheMaxItems,
		CacheTTL:      appConfig.Engine.CacheTTL.Duration,
		EngineLogger:  logging.NewSimpleLogger("kinematic"),
	}
	svc := service.NewService(svcCfg, runs)
	defer svc.Close()

	srvCfg := server.Config{
		Host:         appConfig.Server.Host,
		GRPCPort:     appConfig.Server.GRPCPort,
		HTTPPort:     appConfig.Server.HTTPPort,
		ReadTimeout:  appConfig.Server.ReadTimeout.Duration,
		WriteTimeout: appConfig.Server.WriteTimeout.Duration,
	}
	if serveHost != "" {
		srvCfg.Host = serveHost
	}
	if serveGRPCPort != 0 {
		srvCfg.GRPCPort = serveGRPCPort
	}
	if serveHTTPPort != 0 {
		srvCfg.HTTPPort = serveHTTPPort
	}

	srv := server.New(srvCfg, svc)
	if err := srv.StartAsync(); err != nil {
		return err
	}

	fmt.Println("kinematics")
	fmt.Println("==========")
	fmt.Printf("  [+] gRPC auf %s:%d\n", srvCfg.Host, srvCfg.GRPCPort)
	fmt.Printf("  [+] HTTP auf %s:%d\n", srvCfg.Host, srvCfg.HTTPPort)
	if svc.HistoryEnabled() {
		fmt.Printf("  [+] Historie in %s\n", appConfig.Store.Path)
	} else {
		fmt.Println("  [-] Historie deaktiviert")
	}
	fmt.Println()
	fmt.Println("Beenden mit Ctrl+C")

	if svc.HistoryEnabled() && appConfig.Store.Retention.Duration > 0 {
		go pruneLoop(ctx, svc, appConfig.Store.Retention.Duration, logger)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-sigCh:
		fmt.Println("\nStoppe Dienst...")
	case <-ctx.Done():
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	return srv.Stop(stopCtx)
}

// pruneLoop deletes runs older than retention until ctx is done
func pruneLoop(ctx context.Context, svc *service.Service, retention time.Duration, logger *logging.Logger) {
	prune := func() {
		if _, err := svc.Prune(ctx, retention); err != nil {
			logger.Warn("Failed to prune run history", "error", err)
		}
	}

	prune()
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prune()
		}
	}
}
