package main

import (
	"context"

	"furapi/cmd/furapi/commands"
	"furapi/lib/serviceutil"
	"furapi/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()

	// tracing is optional for the CLI: no telemetry.json5, no exporter
	if tel, err := telemetry.SetupFromEnv(ctx, "furapi"); err == nil {
		defer tel.Shutdown(context.Background())
	}

	commands.ExecuteContext(ctx)
}
