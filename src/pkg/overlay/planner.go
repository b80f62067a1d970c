package overlay

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	log "github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/api/resource"

	"github.com/walbis/minio-to-gitops/src/pkg/models"
)

var logger = log.WithField("package", "overlay")

// storagePattern splits a Kubernetes quantity into magnitude and unit
// suffix, e.g. "10Gi" -> (10, "Gi").
var storagePattern = regexp.MustCompile(`^([0-9]+(?:\.[0-9]+)?)\s*([A-Za-z]*)$`)

// Planner derives per-environment overlay configuration from the base
// environment's sanitized manifests. The first configured environment is
// the base; every later one gets an OverlayConfig whose scaling tier is
// its position among the non-base environments.
type Planner struct {
	Environments []string // ordered; Environments[0] is the base

	// Per-tier scaling defaults. Tier i applies to the i-th non-base
	// environment; environments beyond the last tier reuse the last entry.
	ReplicaTiers    []int
	StorageFactors  []float64
	StorageDefaults []string
}

// NewPlanner returns a planner with the reference scaling: replicas
// 1/2/3, storage 0.5x/2x/5x with 1Gi/10Gi/50Gi fallbacks.
func NewPlanner(environments []string) (*Planner, error) {
	if len(environments) == 0 {
		return nil, models.NewError(models.KindConfiguration, "at least one environment is required")
	}
	return &Planner{
		Environments:    environments,
		ReplicaTiers:    []int{1, 2, 3},
		StorageFactors:  []float64{0.5, 2, 5},
		StorageDefaults: []string{"1Gi", "10Gi", "50Gi"},
	}, nil
}

// Base returns the base environment name.
func (p *Planner) Base() string {
	return p.Environments[0]
}

// Overlays returns the non-base environments in configured order.
func (p *Planner) Overlays() []string {
	return p.Environments[1:]
}

// Automated reports whether an environment should use an automated sync
// policy. Only the first two environments in configured order are safe to
// auto-sync; later environments require a manual sync.
func (p *Planner) Automated(environment string) bool {
	for i, env := range p.Environments {
		if env == environment {
			return i < 2
		}
	}
	return false
}

// BaseConfig describes the base environment in the same shape as the
// overlays so the tree writer can treat all environments uniformly. The
// base holds the literal manifests, so no scaling applies.
func (p *Planner) BaseConfig(namespace string) models.OverlayConfig {
	base := p.Base()
	return models.OverlayConfig{
		Environment:     base,
		TargetNamespace: fmt.Sprintf("%s-%s", namespace, base),
		NamePrefix:      base + "-",
		Automated:       p.Automated(base),
	}
}

// Plan computes one OverlayConfig per non-base environment for a
// namespace. pvcSizes maps PVC names to the storage request found in the
// base environment's manifests.
func (p *Planner) Plan(namespace string, pvcSizes map[string]string) []models.OverlayConfig {
	overlays := make([]models.OverlayConfig, 0, len(p.Overlays()))
	for tier, env := range p.Overlays() {
		cfg := models.OverlayConfig{
			Environment:     env,
			TargetNamespace: fmt.Sprintf("%s-%s", namespace, env),
			NamePrefix:      env + "-",
			ReplicaCount:    p.tierValue(p.ReplicaTiers, tier),
			Automated:       p.Automated(env),
		}
		if len(pvcSizes) > 0 {
			cfg.StorageSizes = make(map[string]string, len(pvcSizes))
			for pvc, size := range pvcSizes {
				cfg.StorageSizes[pvc] = p.scaleStorage(pvc, size, tier)
			}
		}
		overlays = append(overlays, cfg)
	}
	return overlays
}

func (p *Planner) tierValue(tiers []int, tier int) int {
	if tier >= len(tiers) {
		return tiers[len(tiers)-1]
	}
	return tiers[tier]
}

// scaleStorage scales a base storage size by the tier factor, floored at
// one unit, preserving the unit suffix. Storage sizing is a best-effort
// convenience: an unparsable base value falls back to the tier default
// instead of failing the run.
func (p *Planner) scaleStorage(pvc, baseSize string, tier int) string {
	factor := p.StorageFactors[len(p.StorageFactors)-1]
	if tier < len(p.StorageFactors) {
		factor = p.StorageFactors[tier]
	}
	fallback := p.StorageDefaults[len(p.StorageDefaults)-1]
	if tier < len(p.StorageDefaults) {
		fallback = p.StorageDefaults[tier]
	}

	match := storagePattern.FindStringSubmatch(baseSize)
	if match == nil {
		logger.WithFields(log.Fields{"pvc": pvc, "size": baseSize}).
			Warn("Unparsable storage size, using tier default")
		return fallback
	}
	if _, err := resource.ParseQuantity(baseSize); err != nil {
		logger.WithFields(log.Fields{"pvc": pvc, "size": baseSize}).
			Warn("Invalid storage quantity, using tier default")
		return fallback
	}

	magnitude, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return fallback
	}
	scaled := math.Floor(magnitude * factor)
	if scaled < 1 {
		scaled = 1
	}
	return strconv.FormatInt(int64(scaled), 10) + match[2]
}

// ExtractPVCSizes collects spec.resources.requests.storage for every
// PersistentVolumeClaim among the given documents, keyed by PVC name.
func ExtractPVCSizes(docs []map[string]any) map[string]string {
	sizes := make(map[string]string)
	for _, doc := range docs {
		if kind, _ := doc["kind"].(string); kind != "PersistentVolumeClaim" {
			continue
		}
		metadata, _ := doc["metadata"].(map[string]any)
		name, _ := metadata["name"].(string)
		if name == "" {
			continue
		}
		spec, _ := doc["spec"].(map[string]any)
		resources, _ := spec["resources"].(map[string]any)
		requests, _ := resources["requests"].(map[string]any)
		if storage, ok := requests["storage"].(string); ok {
			sizes[name] = storage
		}
	}
	return sizes
}
