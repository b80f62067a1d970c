package gitops

import "fmt"

const (
	KustomizationAPIVersion = "kustomize.config.k8s.io/v1beta1"
	KustomizationKind       = "Kustomization"
	KustomizationFileName   = "kustomization.yaml"
)

// Kustomization models the kustomization.yaml files the generator emits,
// both the base descriptor and the per-environment overlays.
type Kustomization struct {
	APIVersion   string            `yaml:"apiVersion"`
	Kind         string            `yaml:"kind"`
	Resources    []string          `yaml:"resources"`
	Namespace    string            `yaml:"namespace,omitempty"`
	NamePrefix   string            `yaml:"namePrefix,omitempty"`
	CommonLabels map[string]string `yaml:"commonLabels,omitempty"`
	Patches      []Patch           `yaml:"patches,omitempty"`
}

// Patch is a targeted JSON patch inside a kustomization.
type Patch struct {
	Target PatchTarget `yaml:"target"`
	Patch  string      `yaml:"patch"`
}

// PatchTarget selects the resources a patch applies to.
type PatchTarget struct {
	Kind string `yaml:"kind"`
	Name string `yaml:"name"`
}

func commonLabels(namespace, environment string) map[string]string {
	return map[string]string{
		"environment":                  environment,
		"app.kubernetes.io/managed-by": "argocd",
		"app.kubernetes.io/part-of":    namespace,
	}
}

// replicasPatch scales every Deployment to the environment's replica
// count and injects an ENVIRONMENT variable into the first container.
func replicasPatch(replicas int, environment string) Patch {
	return Patch{
		Target: PatchTarget{Kind: "Deployment", Name: ".*"},
		Patch: fmt.Sprintf(`- op: replace
  path: /spec/replicas
  value: %d
- op: add
  path: /spec/template/spec/containers/0/env/-
  value:
    name: ENVIRONMENT
    value: %q`, replicas, environment),
	}
}

// storagePatch resizes a single PVC's storage request.
func storagePatch(pvcName, size string) Patch {
	return Patch{
		Target: PatchTarget{Kind: "PersistentVolumeClaim", Name: pvcName},
		Patch: fmt.Sprintf(`- op: replace
  path: /spec/resources/requests/storage
  value: %q`, size),
	}
}
