package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alovak/splittender/internal/obs"
	"github.com/alovak/splittender/ledger"
	"github.com/alovak/splittender/processor"
	"github.com/alovak/splittender/tender"
)

func main() {
	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	if err := run(logger); err != nil {
		logger.Error("exiting", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ledgerApp := ledger.NewApp(logger, &ledger.Config{
		HTTPAddr:    getenv("LEDGER_HTTP_ADDR", "localhost:9090"),
		RepoBackend: getenv("LEDGER_REPO_BACKEND", "mem"),
		DSN:         getenv("LEDGER_DSN", ""),
	})
	if err := ledgerApp.Start(); err != nil {
		return err
	}
	defer ledgerApp.Shutdown()

	processorURL := getenv("PROCESSOR_URL", "")
	processorKey := getenv("PROCESSOR_API_KEY", "sk_sandbox")

	// Without a configured gateway, run the sandbox so the whole flow works
	// locally.
	var sandboxSrv *http.Server
	if processorURL == "" {
		l, err := net.Listen("tcp", getenv("SANDBOX_HTTP_ADDR", "localhost:9091"))
		if err != nil {
			return err
		}
		sandboxSrv = &http.Server{Handler: processor.NewSandbox(processorKey).Handler()}
		go sandboxSrv.Serve(l)
		processorURL = "http://" + l.Addr().String()
		logger.Info("card processor sandbox started", slog.String("addr", l.Addr().String()))
		defer sandboxSrv.Shutdown(context.Background())
	}

	tenderApp := tender.NewApp(logger, &tender.Config{
		HTTPAddr:        getenv("HTTP_ADDR", "localhost:8080"),
		LedgerURL:       "http://" + ledgerApp.Addr,
		ProcessorURL:    processorURL,
		ProcessorAPIKey: processorKey,
	})
	if err := tenderApp.Start(); err != nil {
		return err
	}
	defer tenderApp.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
