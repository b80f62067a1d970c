package sanitize

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/walbis/minio-to-gitops/src/pkg/models"
)

var logger = log.WithField("package", "sanitize")

// Rules is the immutable field-removal configuration. Built once by
// DefaultRules and passed by reference into the pipeline; the Preserve
// set exempts individual field names from removal.
type Rules struct {
	MetadataBlacklist   map[string]bool
	AnnotationBlacklist map[string]bool
	LabelBlacklist      map[string]bool
	Preserve            map[string]bool
}

// DefaultRules returns the canonical blacklists of cluster-assigned
// fields that must never appear in a GitOps source of truth.
func DefaultRules(preserve ...string) *Rules {
	rules := &Rules{
		MetadataBlacklist: toSet(
			"uid", "resourceVersion", "generation", "creationTimestamp",
			"deletionTimestamp", "deletionGracePeriodSeconds", "managedFields",
			"selfLink", "finalizers", "ownerReferences",
		),
		AnnotationBlacklist: toSet(
			"kubectl.kubernetes.io/last-applied-configuration",
			"deployment.kubernetes.io/revision",
			"control-plane.alpha.kubernetes.io/leader",
			"pv.kubernetes.io/bind-completed",
			"pv.kubernetes.io/bound-by-controller",
			"volume.beta.kubernetes.io/storage-provisioner",
			"volume.kubernetes.io/storage-provisioner",
		),
		LabelBlacklist: toSet(
			"pod-template-hash",
			"controller-revision-hash",
			"statefulset.kubernetes.io/pod-name",
		),
		Preserve: toSet(preserve...),
	}
	return rules
}

func toSet(keys ...string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, key := range keys {
		set[key] = true
	}
	return set
}

// kindRule is one entry of the resource-kind-specific cleanup table.
// Adding a new kind is a table entry, not a new branch.
type kindRule func(rules *Rules, doc map[string]any)

var kindRules = map[string]kindRule{
	"Service":               cleanService,
	"PersistentVolumeClaim": cleanPersistentVolumeClaim,
	"Deployment":            cleanDeployment,
	// ReplicaSet owner references are already dropped by the metadata
	// blacklist; no extra spec cleanup is needed.
}

// Sanitize strips every cluster-assigned field from a manifest document.
// It mutates and returns doc. Sanitize is idempotent: running it on its
// own output changes nothing.
func Sanitize(rules *Rules, doc map[string]any) map[string]any {
	if doc == nil {
		return nil
	}

	delete(doc, "status")

	if metadata, ok := doc["metadata"].(map[string]any); ok {
		cleanMetadata(rules, metadata)
	}

	kind, _ := doc["kind"].(string)
	if rule, ok := kindRules[kind]; ok {
		rule(rules, doc)
	}

	return doc
}

func cleanMetadata(rules *Rules, metadata map[string]any) {
	for field := range rules.MetadataBlacklist {
		if !rules.Preserve[field] {
			delete(metadata, field)
		}
	}

	if annotations, ok := metadata["annotations"].(map[string]any); ok {
		for key := range rules.AnnotationBlacklist {
			if !rules.Preserve[key] {
				delete(annotations, key)
			}
		}
		if len(annotations) == 0 {
			delete(metadata, "annotations")
		}
	}

	if labels, ok := metadata["labels"].(map[string]any); ok {
		for key := range rules.LabelBlacklist {
			if !rules.Preserve[key] {
				delete(labels, key)
			}
		}
	}
}

func cleanService(rules *Rules, doc map[string]any) {
	spec, ok := doc["spec"].(map[string]any)
	if !ok {
		return
	}
	delete(spec, "clusterIP")
	delete(spec, "clusterIPs")
	if serviceType, _ := spec["type"].(string); serviceType == "LoadBalancer" {
		delete(spec, "healthCheckNodePort")
	}
}

func cleanPersistentVolumeClaim(rules *Rules, doc map[string]any) {
	spec, ok := doc["spec"].(map[string]any)
	if !ok {
		return
	}
	delete(spec, "volumeName")
	// Filesystem is the default volume mode; dropping it keeps the
	// manifest minimal without changing semantics.
	if mode, _ := spec["volumeMode"].(string); mode == "Filesystem" {
		delete(spec, "volumeMode")
	}
}

func cleanDeployment(rules *Rules, doc map[string]any) {
	spec, ok := doc["spec"].(map[string]any)
	if !ok {
		return
	}
	delete(spec, "observedGeneration")
	if template, ok := spec["template"].(map[string]any); ok {
		if metadata, ok := template["metadata"].(map[string]any); ok {
			cleanMetadata(rules, metadata)
		}
	}
}

// Verify re-checks a sanitized document for residual cluster-assigned
// fields. A non-empty return means the sanitizer did not fully clean the
// document — a defect to surface, not to silently ignore.
func Verify(rules *Rules, doc map[string]any) []string {
	var residual []string
	if _, ok := doc["status"]; ok {
		residual = append(residual, "status")
	}
	if metadata, ok := doc["metadata"].(map[string]any); ok {
		for field := range rules.MetadataBlacklist {
			if rules.Preserve[field] {
				continue
			}
			if _, ok := metadata[field]; ok {
				residual = append(residual, "metadata."+field)
			}
		}
	}
	return residual
}

// SanitizeDocuments parses a multi-document YAML file, sanitizes every
// document, and re-encodes them in order. Empty documents are dropped.
// Non-Kubernetes documents (no apiVersion/kind) pass through untouched.
func SanitizeDocuments(rules *Rules, raw []byte) ([]byte, []map[string]any, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	var docs []map[string]any
	for {
		var doc map[string]any
		err := decoder.Decode(&doc)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, models.WrapError(models.KindYAMLProcessing, err, "failed to parse manifest")
		}
		if doc == nil {
			continue
		}
		if _, hasAPIVersion := doc["apiVersion"]; !hasAPIVersion {
			logger.Debug("Skipping non-Kubernetes document during sanitation")
			docs = append(docs, doc)
			continue
		}
		docs = append(docs, Sanitize(rules, doc))
	}
	if len(docs) == 0 {
		return nil, nil, models.NewError(models.KindYAMLProcessing, "no documents found in manifest")
	}

	var out bytes.Buffer
	encoder := yaml.NewEncoder(&out)
	encoder.SetIndent(2)
	for _, doc := range docs {
		if err := encoder.Encode(doc); err != nil {
			return nil, nil, models.WrapError(models.KindYAMLProcessing, err, "failed to encode manifest")
		}
	}
	if err := encoder.Close(); err != nil {
		return nil, nil, fmt.Errorf("failed to flush encoder: %w", err)
	}
	return out.Bytes(), docs, nil
}
