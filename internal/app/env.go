package app

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"go.trai.ch/zerr"
)

// EnvOptions configuration for the Env method.
type EnvOptions struct {
	// Dir is where the project lookup starts.
	Dir string
	// Dotenv, when set, receives the variables instead of stdout.
	Dotenv string
}

// Env prints the pip install arguments for the project as environment
// variables, or writes them to a dotenv file.
func (a *App) Env(_ context.Context, opts EnvOptions) error {
	dir := dirOrCwd(opts.Dir)
	cfg, err := a.loadConfig(dir)
	if err != nil {
		return err
	}

	_, plan, err := a.plan(dir, cfg)
	if err != nil {
		return err
	}

	if opts.Dotenv != "" {
		if err := godotenv.Write(plan.Environ(), opts.Dotenv); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to write dotenv file"), "path", opts.Dotenv)
		}
		a.logger.Info("wrote " + opts.Dotenv)
		return nil
	}

	out, err := godotenv.Marshal(plan.Environ())
	if err != nil {
		return zerr.Wrap(err, "failed to render environment")
	}
	_, err = fmt.Fprintln(a.stdout, out)
	return err
}

func dirOrCwd(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}
