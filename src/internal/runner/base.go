package runner

import (
	"context"
	"path"

	log "github.com/sirupsen/logrus"

	"github.com/walbis/minio-to-gitops/src/pkg/bucket"
	"github.com/walbis/minio-to-gitops/src/pkg/classify"
	"github.com/walbis/minio-to-gitops/src/pkg/gitops"
	"github.com/walbis/minio-to-gitops/src/pkg/models"
	"github.com/walbis/minio-to-gitops/src/pkg/overlay"
	"github.com/walbis/minio-to-gitops/src/pkg/retry"
	"github.com/walbis/minio-to-gitops/src/pkg/sanitize"
	"github.com/walbis/minio-to-gitops/src/pkg/validate"
)

var logger *log.Entry = log.New().WithFields(log.Fields{
	"package": "runner",
})

// RunnerBase drives the scan -> download -> generate pipeline. Each stage
// appends to the shared result ledger; per-object problems are recorded
// and the stage continues, while configuration, connectivity and write
// errors abort the run.
type RunnerBase struct {
	Context context.Context
	Options *Options

	Store   bucket.ObjectStore
	Gate    *validate.Gate
	Rules   *sanitize.Rules
	Retry   *retry.Policy
	Planner *overlay.Planner
	Writer  *gitops.Writer

	result *models.ProcessingResult

	// pvcSizes accumulates namespace -> pvc name -> base storage request,
	// collected during Download and consumed by overlay planning.
	pvcSizes map[string]map[string]string
}

var _ RunnerInterface = (*RunnerBase)(nil)

func NewRunnerBase(ctx context.Context, options *Options, store bucket.ObjectStore) (*RunnerBase, error) {
	planner, err := overlay.NewPlanner(options.Environments)
	if err != nil {
		return nil, err
	}
	return &RunnerBase{
		Context:  ctx,
		Options:  options,
		Store:    store,
		Gate:     validate.NewGate(nil),
		Rules:    sanitize.DefaultRules(options.PreserveFields...),
		Retry:    retry.DefaultPolicy(),
		Planner:  planner,
		Writer:   gitops.NewWriter(options.OutputDir, options.RepoURL),
		result:   models.NewProcessingResult(),
		pvcSizes: make(map[string]map[string]string),
	}, nil
}

func (r *RunnerBase) Initialize() error {
	logger.Info("Initializing runner: starting...")

	if r.Store == nil {
		return models.NewError(models.KindConfiguration, "object store is required")
	}
	if err := r.Options.Validate(); err != nil {
		return err
	}

	logger.Info("Initializing runner: probing bucket connectivity")
	err := r.Retry.Do(r.Context, "probe bucket", func() error {
		return r.Store.Probe(r.Context)
	})
	if err != nil {
		return err
	}

	logger.Info("Initializing runner: done.")
	return nil
}

func (r *RunnerBase) Scan() ([]*models.NamespaceConfig, error) {
	timeout := r.Options.ScanTimeout
	if timeout <= 0 {
		timeout = DefaultScanTimeout
	}
	ctx, cancel := context.WithTimeout(r.Context, timeout)
	defer cancel()

	scanner := bucket.NewScanner(r.Store, r.Gate, r.Options.ClusterMappings(), r.Options.Prefix)
	if r.Options.BatchSize > 0 {
		scanner.SetBatchSize(r.Options.BatchSize)
	}

	namespaces, result, err := scanner.Scan(ctx)
	r.result.Merge(result)
	if err != nil {
		return nil, err
	}
	return namespaces, nil
}

func (r *RunnerBase) Download(namespaces []*models.NamespaceConfig) error {
	baseEnv := r.Planner.Base()
	for _, ns := range namespaces {
		if err := r.Context.Err(); err != nil {
			return models.WrapError(models.KindTimeout, err, "download interrupted")
		}
		logger.WithFields(log.Fields{"namespace": ns.Name, "files": ns.FileCount()}).
			Info("Downloading namespace manifests...")

		// Snapshot the listing before processing: content-based
		// recategorization mutates the category map as it goes.
		type entry struct{ category, filename string }
		var entries []entry
		for _, category := range ns.Categories() {
			for _, filename := range ns.Resources[category] {
				entries = append(entries, entry{category, filename})
			}
		}

		for _, e := range entries {
			if err := r.Context.Err(); err != nil {
				return models.WrapError(models.KindTimeout, err, "download interrupted")
			}
			if err := r.downloadOne(ns, baseEnv, e.category, e.filename); err != nil {
				if models.IsFatal(err) {
					return err
				}
				ns.RemoveResource(e.category, e.filename)
				r.result.AddFailure(ns.Name+"/"+e.filename, err.Error())
			}
		}
	}
	return nil
}

// downloadOne fetches, validates, sanitizes and writes a single manifest.
// A non-nil return means the file must not appear in the generated tree.
func (r *RunnerBase) downloadOne(ns *models.NamespaceConfig, baseEnv, category, filename string) error {
	key := path.Join(r.Options.Prefix, ns.Name, filename)

	var data []byte
	err := r.Retry.Do(r.Context, "download "+key, func() error {
		var getErr error
		data, getErr = r.Store.GetObject(r.Context, key)
		return getErr
	})
	if err != nil {
		return err
	}

	if err := r.Gate.CheckObjectSize(key, int64(len(data))); err != nil {
		return err
	}
	if err := r.Gate.CheckContent(filename, data); err != nil {
		return err
	}

	encoded, docs, err := sanitize.SanitizeDocuments(r.Rules, data)
	if err != nil {
		return err
	}

	for _, doc := range docs {
		if err := r.Gate.CheckStructure(filename, doc); err != nil {
			return err
		}
		if _, ok := doc["apiVersion"]; !ok {
			continue
		}
		if err := r.Gate.VerifyManifest(filename, doc); err != nil {
			return err
		}
		for _, residual := range sanitize.Verify(r.Rules, doc) {
			r.result.AddWarning(ns.Name + "/" + filename + ": residual field " + residual)
		}
	}

	// The parsed content is authoritative for placement; the filename
	// guess from the scan phase only stands when no document resolves.
	resolved := r.contentCategory(filename, docs, category)
	if resolved != category {
		logger.WithFields(log.Fields{
			"namespace": ns.Name,
			"filename":  filename,
			"from":      category,
			"to":        resolved,
		}).Info("Recategorized manifest from content")
		ns.MoveResource(category, resolved, filename)
	}

	if sizes := overlay.ExtractPVCSizes(docs); len(sizes) > 0 {
		if r.pvcSizes[ns.Name] == nil {
			r.pvcSizes[ns.Name] = make(map[string]string)
		}
		for pvc, size := range sizes {
			r.pvcSizes[ns.Name][pvc] = size
		}
	}

	return r.Writer.WriteManifest(ns.Name, baseEnv, resolved, filename, encoded)
}

// contentCategory picks the category from the first Kubernetes document
// in the file. Files with no mappable document keep the scan-time guess.
func (r *RunnerBase) contentCategory(filename string, docs []map[string]any, fallback string) string {
	for _, doc := range docs {
		if _, ok := doc["apiVersion"]; !ok {
			continue
		}
		return classify.Categorize(filename, doc)
	}
	return fallback
}

func (r *RunnerBase) Generate(namespaces []*models.NamespaceConfig) error {
	baseEnv := r.Planner.Base()
	var kept []*models.NamespaceConfig

	for _, ns := range namespaces {
		if ns.FileCount() == 0 {
			logger.WithField("namespace", ns.Name).Warn("Skipping namespace: no manifests survived processing")
			continue
		}
		kept = append(kept, ns)

		if err := r.Writer.WriteBaseKustomization(ns, baseEnv); err != nil {
			return err
		}
		configs := []models.OverlayConfig{r.Planner.BaseConfig(ns.Name)}
		configs = append(configs, r.Planner.Plan(ns.Name, r.pvcSizes[ns.Name])...)

		for _, cfg := range configs {
			if cfg.Environment != baseEnv {
				if err := r.Writer.WriteOverlayKustomization(ns, baseEnv, cfg); err != nil {
					return err
				}
			}
			if err := r.Writer.WriteApplication(ns, cfg); err != nil {
				return err
			}
		}

		if err := r.Writer.WriteNamespaceReadme(ns, configs); err != nil {
			return err
		}
		logger.WithFields(log.Fields{
			"namespace":    ns.Name,
			"environments": len(configs),
		}).Info("Generated namespace tree")
	}

	if len(kept) == 0 {
		return models.NewError(models.KindValidation, "no namespaces produced any manifests")
	}
	return r.Writer.WriteRootReadme(kept, r.Options.Environments)
}

func (r *RunnerBase) Process() error {
	if err := r.Initialize(); err != nil {
		return err
	}

	namespaces, err := r.Scan()
	if err != nil {
		return err
	}
	logger.WithField("namespaces", len(namespaces)).Info("Scan finished")

	if err := r.Download(namespaces); err != nil {
		return err
	}

	return r.Generate(namespaces)
}

func (r *RunnerBase) Result() *models.ProcessingResult {
	return r.result
}
