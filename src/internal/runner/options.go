package runner

import (
	"os"
	"time"

	"k8s.io/apimachinery/pkg/util/validation"

	"github.com/walbis/minio-to-gitops/src/pkg/bucket"
	"github.com/walbis/minio-to-gitops/src/pkg/models"
)

// Options is the resolved configuration the pipeline consumes. The CLI
// populates it from flags; ApplyEnvOverrides lets deployment environments
// inject credentials without exposing them on the command line.
type Options struct {
	// Object store
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	Secure    bool

	// GitOps output
	RepoURL      string
	OutputDir    string
	Environments []string          // ordered; the first is the base environment
	Clusters     map[string]string // default environment -> cluster API server
	// ClusterOverrides maps namespace -> environment -> cluster API
	// server for namespaces that deploy to non-default clusters.
	ClusterOverrides map[string]map[string]string

	// Tuning
	BatchSize      int
	ScanTimeout    time.Duration
	PreserveFields []string // sanitizer blacklist exemptions
	Debug          bool
}

// ApplyEnvOverrides fills store credentials and the repository URL from
// the environment when set.
func (o *Options) ApplyEnvOverrides() {
	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		o.Endpoint = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		o.AccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		o.SecretKey = v
	}
	if v := os.Getenv("MINIO_BUCKET"); v != "" {
		o.Bucket = v
	}
	if v := os.Getenv("GITOPS_REPO_URL"); v != "" {
		o.RepoURL = v
	}
}

// Validate checks the configuration before any network call is made.
// Every problem found here is fatal.
func (o *Options) Validate() error {
	if o.Endpoint == "" {
		return models.NewError(models.KindConfiguration, "object store endpoint is required")
	}
	if o.Bucket == "" {
		return models.NewError(models.KindConfiguration, "bucket name is required")
	}
	if o.RepoURL == "" {
		return models.NewError(models.KindConfiguration, "repository URL is required")
	}
	if len(o.Environments) == 0 {
		return models.NewError(models.KindConfiguration, "at least one environment is required")
	}
	for _, env := range o.Environments {
		if errs := validation.IsDNS1123Label(env); len(errs) > 0 {
			return models.NewError(models.KindConfiguration,
				"environment name %q is not a valid DNS-1123 label", env)
		}
	}
	if o.BatchSize < 0 {
		return models.NewError(models.KindConfiguration, "batch size must be positive")
	}
	if err := o.ClusterMappings().Validate(o.Environments); err != nil {
		return err
	}
	return nil
}

// ClusterMappings converts the flat option maps into the model the
// scanner consumes.
func (o *Options) ClusterMappings() *models.ClusterMappings {
	mappings := &models.ClusterMappings{
		Default:   models.ClusterMapping(o.Clusters),
		Overrides: make(map[string]models.ClusterMapping, len(o.ClusterOverrides)),
	}
	for namespace, mapping := range o.ClusterOverrides {
		mappings.Overrides[namespace] = models.ClusterMapping(mapping)
	}
	return mappings
}

// StoreConfig builds the object-store client configuration.
func (o *Options) StoreConfig() bucket.Config {
	return bucket.Config{
		Endpoint:  o.Endpoint,
		AccessKey: o.AccessKey,
		SecretKey: o.SecretKey,
		Bucket:    o.Bucket,
		Prefix:    o.Prefix,
		Secure:    o.Secure,
	}
}

// DefaultScanTimeout bounds the whole scan phase.
const DefaultScanTimeout = 300 * time.Second
