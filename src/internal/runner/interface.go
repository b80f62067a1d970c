package runner

import "github.com/walbis/minio-to-gitops/src/pkg/models"

type RunnerInterface interface {
	// Initialize the runner: validate configuration and probe the bucket
	Initialize() error

	// Scan the bucket and classify every object into namespaces
	Scan() ([]*models.NamespaceConfig, error)

	// Download, validate and sanitize every discovered manifest,
	// writing the survivors into the base environment tree
	Download(namespaces []*models.NamespaceConfig) error

	// Generate kustomizations, Argo CD applications and documentation
	// for every namespace that still has manifests
	Generate(namespaces []*models.NamespaceConfig) error

	// Main routine to process the runner
	Process() error

	// Result returns the consolidated ledger of the whole run
	Result() *models.ProcessingResult
}
