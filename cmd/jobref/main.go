// Command jobref prints the job context found in the environment and can
// launch a command with a job context exported.
//
//	jobref [--fetch] [--output text|yaml]
//	jobref --jobkey 1/2/3 --secret s --endpoint localhost:8123 -- scrapy crawl example
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/mattkinnersley/shub-jobref/internal/config"
	"github.com/mattkinnersley/shub-jobref/internal/executor"
	"github.com/mattkinnersley/shub-jobref/internal/hsref"
	"github.com/mattkinnersley/shub-jobref/internal/jobkey"
)

type options struct {
	jobKey    string
	secret    string
	endpoint  string
	userAgent string
	fetch     bool
	output    string
	image     string
	logLevel  string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout)
	var exitErr *executor.ExitError
	switch {
	case err == nil:
	case errors.Is(err, pflag.ErrHelp):
	case errors.As(err, &exitErr):
		os.Exit(exitErr.Code)
	default:
		slog.Error("jobref failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	var opts options
	fs := pflag.NewFlagSet("jobref", pflag.ContinueOnError)
	fs.StringVar(&opts.jobKey, "jobkey", "", "job key <project>/<spider>/<job> (overrides "+config.EnvJobKey+")")
	fs.StringVar(&opts.secret, "secret", "", "job secret; exported as "+config.EnvJobAuth+" together with the job key")
	fs.StringVar(&opts.endpoint, "endpoint", "", "storage endpoint (overrides "+config.EnvStorage+")")
	fs.StringVar(&opts.userAgent, "user-agent", "", "storage client user agent (overrides "+config.EnvUserAgent+")")
	fs.BoolVar(&opts.fetch, "fetch", false, "resolve the job in storage and print its record")
	fs.StringVarP(&opts.output, "output", "o", "text", "output format: text or yaml")
	fs.StringVar(&opts.image, "image", "", "run the command in this docker image instead of a subprocess")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level")
	if err := fs.Parse(args); err != nil {
		return err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: config.ParseLogLevel(opts.logLevel)})))

	env, err := applyOverrides(config.LoadJobEnv(), opts)
	if err != nil {
		return err
	}

	if command := fs.Args(); len(command) > 0 {
		return launch(ctx, env, opts.image, command)
	}

	ref, err := hsref.New(env)
	if err != nil {
		return err
	}
	defer ref.Close()

	r, err := describe(ctx, ref, opts.fetch)
	if err != nil {
		return err
	}
	return r.write(stdout, opts.output)
}

// applyOverrides layers the command line over the environment.
func applyOverrides(env config.JobEnv, opts options) (config.JobEnv, error) {
	if opts.jobKey != "" {
		env.JobKey = opts.jobKey
	}
	if opts.endpoint != "" {
		env.Endpoint = opts.endpoint
	}
	if opts.userAgent != "" {
		env.UserAgent = opts.userAgent
	}
	if opts.secret != "" {
		key, err := jobkey.Parse(env.JobKey)
		if err != nil {
			return env, fmt.Errorf("--secret needs a job key: %w", err)
		}
		env.Auth = jobkey.EncodeAuth(key, opts.secret)
	}
	return env, nil
}

func launch(ctx context.Context, env config.JobEnv, image string, command []string) error {
	spec := executor.Spec{Image: image, Command: command, Env: env.Environ()}
	if image == "" {
		return executor.NewSubprocessExecutor().Run(ctx, spec)
	}
	docker, err := executor.NewDockerExecutor()
	if err != nil {
		return err
	}
	defer docker.Close()
	return docker.Run(ctx, spec)
}
