package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/walbis/minio-to-gitops/src/internal/runner"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var status *exitError
		if errors.As(err, &status) {
			os.Exit(status.code)
		}
		os.Exit(1)
	}
}

// newRootCmd creates the root command, parse args from CLI
func newRootCmd() *cobra.Command {
	opts := &runner.Options{}

	cmd := &cobra.Command{
		Use:   "minio-to-gitops",
		Short: "Convert a MinIO bucket of Kubernetes manifests into a GitOps repository",
		Long: `minio-to-gitops scans an S3-compatible bucket laid out as <namespace>/<manifest>.yaml,
validates and sanitizes every manifest, and generates a multi-environment GitOps tree:
per-namespace kustomize bases and overlays plus Argo CD Application descriptors.`,
		Version: fmt.Sprintf("%s (built: %s)", Version, BuildTime),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	// Object store flags
	cmd.Flags().StringVar(&opts.Endpoint, "endpoint", "", "Object store endpoint, host:port (or MINIO_ENDPOINT)")
	cmd.Flags().StringVar(&opts.AccessKey, "access-key", "", "Object store access key (or MINIO_ACCESS_KEY)")
	cmd.Flags().StringVar(&opts.SecretKey, "secret-key", "", "Object store secret key (or MINIO_SECRET_KEY)")
	cmd.Flags().StringVar(&opts.Bucket, "bucket", "", "Bucket holding the manifests (or MINIO_BUCKET)")
	cmd.Flags().StringVar(&opts.Prefix, "prefix", "", "Key prefix to scan under")
	cmd.Flags().BoolVar(&opts.Secure, "secure", false, "Use TLS for the object store connection")

	// GitOps output flags
	cmd.Flags().StringVar(&opts.RepoURL, "repo-url", "", "Git repository URL the Argo CD applications point at (or GITOPS_REPO_URL)")
	cmd.Flags().StringVar(&opts.OutputDir, "output-dir", "./gitops",
		"Directory the generated GitOps tree is written to")
	cmd.Flags().StringSliceVar(&opts.Environments, "environments",
		[]string{"dev", "test", "preprod", "prod"},
		"Ordered environments; the first is the kustomize base")
	cmd.Flags().StringToStringVar(&opts.Clusters, "clusters", nil,
		"Environment to cluster API server mapping (env=https://server, comma-separated)")

	// Tuning flags
	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", 0, "Bucket listing batch size (0 uses the default)")
	cmd.Flags().DurationVar(&opts.ScanTimeout, "scan-timeout", runner.DefaultScanTimeout,
		"Deadline for the bucket scan phase")
	cmd.Flags().StringSliceVar(&opts.PreserveFields, "preserve-fields", nil,
		"Field names exempted from sanitization")
	cmd.Flags().BoolVar(&opts.Debug, "debug", false, "Debug mode")

	return cmd
}
