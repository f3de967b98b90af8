package app

import "context"

// Run loads configuration from the environment and serves until ctx is done.
// It returns an error instead of calling os.Exit to keep defers effective.
func Run(ctx context.Context) error {
	cfg := LoadConfig()
	log := NewLogger(cfg.LogLevel, cfg.LogFormat)

	deps, err := LoadDeps()
	if err != nil {
		return err
	}

	a, err := New(ctx, cfg, deps, log)
	if err != nil {
		return err
	}
	return a.Run(ctx)
}
