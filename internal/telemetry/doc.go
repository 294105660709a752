// Package telemetry exports failfix traces over OTLP.
//
// Tracing is off unless enabled; when the exporter cannot be created the
// instance degrades to the global no-op provider instead of failing the run.
//
//	tel, err := telemetry.New(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
// Tests use TestTelemetry, which records spans in memory and installs itself
// as the global provider for the duration of the test.
package telemetry
