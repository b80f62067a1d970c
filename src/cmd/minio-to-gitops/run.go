package main

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/walbis/minio-to-gitops/src/internal/runner"
	"github.com/walbis/minio-to-gitops/src/pkg/bucket"
	"github.com/walbis/minio-to-gitops/src/pkg/models"
)

var logger *log.Entry = log.New().WithFields(log.Fields{
	"package": "run",
})

// InClusterServer is the destination used for any environment without an
// explicit --clusters entry.
const InClusterServer = "https://kubernetes.default.svc"

const (
	exitPartial     = 2
	exitInterrupted = 130
)

// exitError carries a process exit status through cobra's error return.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func createRunner(ctx context.Context, opts *runner.Options) (runner.RunnerInterface, error) {
	logger.WithField("opts", opts).Debug("Creating runner..")

	store, err := bucket.NewClient(opts.StoreConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}
	appRunner, err := runner.NewRunnerBase(ctx, opts, store)
	if err != nil {
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}
	return appRunner, nil
}

func run(ctx context.Context, opts *runner.Options) error {
	if opts.Debug {
		log.SetLevel(log.DebugLevel)
	}
	opts.ApplyEnvOverrides()
	logger.WithFields(log.Fields{
		"endpoint": opts.Endpoint,
		"bucket":   opts.Bucket,
		"prefix":   opts.Prefix,
	}).Info("Running..")

	if err := validateOptions(opts); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	appRunner, err := createRunner(ctx, opts)
	if err != nil {
		return err
	}

	processErr := appRunner.Process()
	fmt.Print(appRunner.Result().Summary(10))

	if ctx.Err() != nil {
		return &exitError{code: exitInterrupted, msg: "interrupted"}
	}
	if processErr != nil {
		return fmt.Errorf("failed to process: %w", processErr)
	}
	if result := appRunner.Result(); result.HasFailures() || result.HasWarnings() {
		return &exitError{
			code: exitPartial,
			msg: fmt.Sprintf("completed with %d failure(s) and %d warning(s)",
				len(result.Failures), len(result.Warnings)),
		}
	}

	logger.Info("GitOps tree generated successfully")
	return nil
}

func validateOptions(opts *runner.Options) error {
	// Environments without an explicit cluster entry deploy in-cluster.
	if opts.Clusters == nil {
		opts.Clusters = make(map[string]string, len(opts.Environments))
	}
	for _, env := range opts.Environments {
		if opts.Clusters[env] == "" {
			opts.Clusters[env] = InClusterServer
		}
	}
	for env := range opts.Clusters {
		found := false
		for _, configured := range opts.Environments {
			if env == configured {
				found = true
				break
			}
		}
		if !found {
			return models.NewError(models.KindConfiguration,
				"--clusters names unknown environment %q", env)
		}
	}

	return opts.Validate()
}
