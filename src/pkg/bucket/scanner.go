package bucket

import (
	"context"
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/walbis/minio-to-gitops/src/pkg/classify"
	"github.com/walbis/minio-to-gitops/src/pkg/models"
	"github.com/walbis/minio-to-gitops/src/pkg/validate"
)

// DefaultBatchSize bounds how many object descriptors are held in memory
// at once during scanning.
const DefaultBatchSize = 100

// Scanner enumerates bucket objects under a prefix and classifies them
// into namespaces. The full object list is never materialized: the
// listing stream is drained in fixed-size batches.
type Scanner struct {
	store     ObjectStore
	gate      *validate.Gate
	clusters  *models.ClusterMappings
	prefix    string
	batchSize int
}

func NewScanner(store ObjectStore, gate *validate.Gate, clusters *models.ClusterMappings, prefix string) *Scanner {
	return &Scanner{
		store:     store,
		gate:      gate,
		clusters:  clusters,
		prefix:    prefix,
		batchSize: DefaultBatchSize,
	}
}

// SetBatchSize overrides the listing batch size. Values below 1 are
// ignored.
func (s *Scanner) SetBatchSize(n int) {
	if n >= 1 {
		s.batchSize = n
	}
}

// Scan lists every object under the prefix and returns the discovered
// namespaces together with the per-object result ledger. A per-object
// problem is recorded and scanning continues; a listing failure or a
// ceiling violation aborts the scan and is returned as an error with an
// empty namespace list.
func (s *Scanner) Scan(ctx context.Context) ([]*models.NamespaceConfig, *models.ProcessingResult, error) {
	result := models.NewProcessingResult()
	namespaces := make(map[string]*models.NamespaceConfig)

	logger.WithField("prefix", s.prefix).Info("Scanning bucket...")

	batch := make([]models.BucketObject, 0, s.batchSize)
	flush := func() {
		for _, obj := range batch {
			s.processObject(obj, namespaces, result)
		}
		batch = batch[:0]
	}

	for info := range s.store.ListObjects(ctx, s.prefix) {
		if info.Err != nil {
			result.AddFailure(s.prefix, info.Err.Error())
			return nil, result, info.Err
		}
		batch = append(batch, info.Object)
		if len(batch) >= s.batchSize {
			flush()
		}
	}
	flush()

	if err := ctx.Err(); err != nil {
		// The namespace map is incomplete; callers must not treat a
		// timed-out scan as "fewer namespaces exist".
		timeout := models.WrapError(models.KindTimeout, err, "scan deadline exceeded")
		result.AddFailure(s.prefix, timeout.Error())
		return nil, result, timeout
	}

	if err := s.checkCeilings(namespaces); err != nil {
		return nil, result, err
	}

	ordered := make([]*models.NamespaceConfig, 0, len(namespaces))
	for _, ns := range namespaces {
		ordered = append(ordered, ns)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Name < ordered[j].Name })
	for _, ns := range ordered {
		for category := range ns.Resources {
			sort.Strings(ns.Resources[category])
		}
	}

	logger.WithField("count", len(ordered)).Info("Scan complete")
	return ordered, result, nil
}

func (s *Scanner) processObject(obj models.BucketObject, namespaces map[string]*models.NamespaceConfig, result *models.ProcessingResult) {
	if !classify.IsManifestFile(obj.Key) {
		return
	}

	namespace, filename, err := classify.Classify(obj.Key, s.prefix)
	if err != nil {
		if models.IsKind(err, models.KindNamespaceValidation) {
			result.AddFailure(obj.Key, err.Error())
		} else {
			result.AddWarning(obj.Key + ": " + err.Error())
		}
		return
	}

	if err := s.gate.CheckObjectSize(obj.Key, obj.Size); err != nil {
		result.AddFailure(obj.Key, err.Error())
		return
	}

	ns, ok := namespaces[namespace]
	if !ok {
		ns = models.NewNamespaceConfig(namespace, s.clusters.For(namespace))
		namespaces[namespace] = ns
		result.AddNamespace(namespace)
	}

	category := classify.CategorizeByFilename(filename)
	ns.AddResource(category, filename)
	result.AddSuccess(namespace + "/" + filename)

	logger.WithFields(log.Fields{
		"namespace": namespace,
		"category":  category,
		"filename":  filename,
	}).Debug("Found manifest")
}

// checkCeilings enforces the hard namespace and per-namespace file
// limits. Violations fail the whole scan: silently truncating would
// produce an incomplete GitOps tree without the caller knowing.
func (s *Scanner) checkCeilings(namespaces map[string]*models.NamespaceConfig) error {
	limits := s.gate.Limits()
	if len(namespaces) > limits.MaxNamespaces {
		return models.NewError(models.KindConfiguration,
			"found %d namespaces, exceeds limit of %d", len(namespaces), limits.MaxNamespaces)
	}
	for name, ns := range namespaces {
		if count := ns.FileCount(); count > limits.MaxFilesPerNamespace {
			return models.NewError(models.KindConfiguration,
				"namespace %q has %d files, exceeds limit of %d", name, count, limits.MaxFilesPerNamespace)
		}
	}
	return nil
}
