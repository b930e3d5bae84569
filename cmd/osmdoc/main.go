// Command osmdoc converts OpenStreetMap extracts into documents, loads them
// into a document store and analyses the loaded collection.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/osmdoc/internal/adapters/driven/config/file"
	"github.com/custodia-labs/osmdoc/internal/adapters/driven/storage"
	"github.com/custodia-labs/osmdoc/internal/adapters/driving/cli"
	"github.com/custodia-labs/osmdoc/internal/connectors"
	"github.com/custodia-labs/osmdoc/internal/core/domain"
	"github.com/custodia-labs/osmdoc/internal/core/ports/driven"
	"github.com/custodia-labs/osmdoc/internal/core/services"
	"github.com/custodia-labs/osmdoc/internal/logger"
	"github.com/custodia-labs/osmdoc/internal/monitoring"
	"github.com/custodia-labs/osmdoc/internal/normalisers/osm"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opener := storage.NewOpener()
	defer opener.Close()

	cli.SetVersion(version)
	cli.SetBootstrap(func(configDir string) (*cli.Services, error) {
		return bootstrap(configDir, opener)
	})

	if err := cli.Execute(ctx); err != nil {
		stop()
		_ = opener.Close()
		os.Exit(1)
	}
}

// bootstrap wires the adapters into the core services.
func bootstrap(configDir string, opener *storage.Opener) (*cli.Services, error) {
	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, err
	}
	logger.Debug("config: %s", configStore.Path())

	metrics := monitoring.New()
	shaper := func(mode domain.StreetRewrite) driven.ElementShaper {
		return osm.New(mode)
	}

	return &cli.Services{
		Settings: services.NewSettingsService(configStore),
		Convert:  services.NewConvertService(connectors.NewFactory(), shaper, metrics),
		Load:     services.NewLoadService(opener, metrics),
		Analysis: services.NewAnalysisService(opener, metrics),
		Metrics:  metrics,
	}, nil
}
