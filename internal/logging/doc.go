// Package logging provides structured logging for failfix.
//
// # Overview
//
// Logging package wraps Zap with:
//   - Custom Trace level (-2, below Debug)
//   - stderr output (stdout is reserved for the human-readable report)
//   - Optional OpenTelemetry output through the otelzap bridge
//   - Automatic context field injection (trace_id, job, run, analysis)
//   - Secret redaction for CI credentials
//
// # Usage
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg, nil)
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithRun(ctx, logging.Run{Job: "build", RunID: "123"})
//	logger.Info(ctx, "analysis complete", zap.Int("issues", 2))
//
// Components below the CLI take a plain *zap.Logger (see Logger.Underlying)
// and name it after themselves.
//
// # Testing
//
//	tl := logging.NewTestLogger()
//	tl.Info(ctx, "test message", zap.String("key", "value"))
//	tl.AssertLogged(t, zapcore.InfoLevel, "test message")
//	tl.AssertNoSecrets(t)
package logging
