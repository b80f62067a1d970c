package gitops

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
	sigsyaml "sigs.k8s.io/yaml"

	"github.com/walbis/minio-to-gitops/src/pkg/models"
)

var logger = log.WithField("package", "gitops")

// Writer renders the generated GitOps tree:
//
//	namespaces/<ns>/argocd-apps/<env>.yaml
//	namespaces/<ns>/environments/<base>/kustomization.yaml
//	namespaces/<ns>/environments/<base>/<category>/<file>.yaml
//	namespaces/<ns>/environments/<overlay>/kustomization.yaml
//
// Every file write is atomic: content goes to a sibling temp path, is
// fsynced, then renamed into place.
type Writer struct {
	outputDir string
	repoURL   string
}

func NewWriter(outputDir, repoURL string) *Writer {
	return &Writer{outputDir: outputDir, repoURL: repoURL}
}

func (w *Writer) namespaceDir(namespace string) string {
	return filepath.Join(w.outputDir, "namespaces", namespace)
}

func (w *Writer) environmentDir(namespace, environment string) string {
	return filepath.Join(w.namespaceDir(namespace), "environments", environment)
}

// WriteManifest places one sanitized manifest under the base
// environment's category directory.
func (w *Writer) WriteManifest(namespace, environment, category, filename string, content []byte) error {
	path := filepath.Join(w.environmentDir(namespace, environment), category, filename)
	return w.atomicWrite(path, content)
}

// WriteBaseKustomization emits the base environment's descriptor, listing
// each category directory as a resource.
func (w *Writer) WriteBaseKustomization(ns *models.NamespaceConfig, baseEnv string) error {
	resources := make([]string, 0, len(ns.Resources))
	for _, category := range ns.Categories() {
		resources = append(resources, category+"/")
	}
	k := Kustomization{
		APIVersion:   KustomizationAPIVersion,
		Kind:         KustomizationKind,
		Resources:    resources,
		Namespace:    fmt.Sprintf("%s-%s", ns.Name, baseEnv),
		NamePrefix:   baseEnv + "-",
		CommonLabels: commonLabels(ns.Name, baseEnv),
	}
	return w.writeKustomization(ns.Name, baseEnv, &k)
}

// WriteOverlayKustomization emits one overlay descriptor referencing the
// base environment's category directories and applying the overlay's
// namespace, prefix, labels and patches.
func (w *Writer) WriteOverlayKustomization(ns *models.NamespaceConfig, baseEnv string, cfg models.OverlayConfig) error {
	resources := make([]string, 0, len(ns.Resources))
	for _, category := range ns.Categories() {
		resources = append(resources, fmt.Sprintf("../%s/%s/", baseEnv, category))
	}
	k := Kustomization{
		APIVersion:   KustomizationAPIVersion,
		Kind:         KustomizationKind,
		Resources:    resources,
		Namespace:    cfg.TargetNamespace,
		NamePrefix:   cfg.NamePrefix,
		CommonLabels: commonLabels(ns.Name, cfg.Environment),
	}

	if _, ok := ns.Resources["deployments"]; ok {
		k.Patches = append(k.Patches, replicasPatch(cfg.ReplicaCount, cfg.Environment))
	}
	if _, ok := ns.Resources["persistentvolumeclaims"]; ok {
		pvcNames := make([]string, 0, len(cfg.StorageSizes))
		for pvc := range cfg.StorageSizes {
			pvcNames = append(pvcNames, pvc)
		}
		sort.Strings(pvcNames)
		for _, pvc := range pvcNames {
			k.Patches = append(k.Patches, storagePatch(pvc, cfg.StorageSizes[pvc]))
		}
	}

	return w.writeKustomization(ns.Name, cfg.Environment, &k)
}

func (w *Writer) writeKustomization(namespace, environment string, k *Kustomization) error {
	data, err := yaml.Marshal(k)
	if err != nil {
		return fmt.Errorf("failed to marshal kustomization for %s/%s: %w", namespace, environment, err)
	}
	path := filepath.Join(w.environmentDir(namespace, environment), KustomizationFileName)
	if err := w.atomicWrite(path, data); err != nil {
		return err
	}
	logger.WithFields(log.Fields{"namespace": namespace, "environment": environment}).
		Info("Generated kustomization")
	return nil
}

// WriteApplication emits one Argo CD Application descriptor pointing at
// the environment's directory with the derived sync policy.
func (w *Writer) WriteApplication(ns *models.NamespaceConfig, cfg models.OverlayConfig) error {
	app := Application{
		APIVersion: ApplicationAPIVersion,
		Kind:       ApplicationKind,
		Metadata: ObjectMeta{
			Name:      fmt.Sprintf("%s-%s", ns.Name, cfg.Environment),
			Namespace: ArgoCDNamespace,
			Labels: map[string]string{
				"namespace":   ns.Name,
				"environment": cfg.Environment,
			},
		},
		Spec: ApplicationSpec{
			Project: "default",
			Source: ApplicationSource{
				RepoURL:        w.repoURL,
				TargetRevision: "main",
				Path:           fmt.Sprintf("namespaces/%s/environments/%s", ns.Name, cfg.Environment),
			},
			Destination: ApplicationDestination{
				Server:    ns.ClusterMapping[cfg.Environment],
				Namespace: cfg.TargetNamespace,
			},
			SyncPolicy: &SyncPolicy{
				SyncOptions: []string{"CreateNamespace=true"},
			},
			Info: []InfoItem{
				{Name: "Environment", Value: cfg.Environment},
				{Name: "Target Cluster", Value: ns.ClusterMapping[cfg.Environment]},
				{Name: "Namespace", Value: cfg.TargetNamespace},
			},
		},
	}
	// An empty automated block would still enable auto-sync, so it is
	// only present for environments that want it.
	if cfg.Automated {
		app.Spec.SyncPolicy.Automated = &SyncPolicyAutomated{Prune: true, SelfHeal: true}
	}

	data, err := sigsyaml.Marshal(&app)
	if err != nil {
		return fmt.Errorf("failed to marshal application %s-%s: %w", ns.Name, cfg.Environment, err)
	}
	path := filepath.Join(w.namespaceDir(ns.Name), "argocd-apps", cfg.Environment+".yaml")
	if err := w.atomicWrite(path, data); err != nil {
		return err
	}
	logger.WithFields(log.Fields{"namespace": ns.Name, "environment": cfg.Environment}).
		Info("Generated Argo CD application")
	return nil
}

// atomicWrite writes data to a sibling temporary file, fsyncs it, then
// renames it into place. A crash mid-write never leaves a half-written
// file at the canonical path; stale temp files are overwritten by the
// next run.
func (w *Writer) atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %q: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %q: %w", dir, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync %q: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %q: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod %q: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to rename into %q: %w", path, err)
	}
	return nil
}
