package gitops

// Minimal Argo CD Application model. Only the fields this generator
// emits are declared, to avoid pulling in the full Argo CD dependency
// tree; the shapes are compatible with the argoproj.io/v1alpha1 CRD.

const (
	ApplicationAPIVersion = "argoproj.io/v1alpha1"
	ApplicationKind       = "Application"

	// ArgoCDNamespace is where Application resources live.
	ArgoCDNamespace = "argocd"
)

// Application is a declarative pointer telling Argo CD which directory to
// sync to which cluster and namespace.
type Application struct {
	APIVersion string          `json:"apiVersion"`
	Kind       string          `json:"kind"`
	Metadata   ObjectMeta      `json:"metadata"`
	Spec       ApplicationSpec `json:"spec"`
}

// ObjectMeta is the subset of Kubernetes object metadata the generator
// populates.
type ObjectMeta struct {
	Name      string            `json:"name"`
	Namespace string            `json:"namespace,omitempty"`
	Labels    map[string]string `json:"labels,omitempty"`
}

// ApplicationSpec represents the desired application state.
type ApplicationSpec struct {
	Project     string                 `json:"project"`
	Source      ApplicationSource      `json:"source"`
	Destination ApplicationDestination `json:"destination"`
	SyncPolicy  *SyncPolicy            `json:"syncPolicy,omitempty"`
	Info        []InfoItem             `json:"info,omitempty"`
}

// ApplicationSource points at a directory within the GitOps repository.
type ApplicationSource struct {
	RepoURL        string `json:"repoURL"`
	TargetRevision string `json:"targetRevision,omitempty"`
	Path           string `json:"path,omitempty"`
}

// ApplicationDestination names the target cluster and namespace.
type ApplicationDestination struct {
	Server    string `json:"server,omitempty"`
	Namespace string `json:"namespace,omitempty"`
}

// SyncPolicy controls when and how a sync is performed.
type SyncPolicy struct {
	Automated   *SyncPolicyAutomated `json:"automated,omitempty"`
	SyncOptions []string             `json:"syncOptions,omitempty"`
}

// SyncPolicyAutomated keeps an application synced to the target revision.
type SyncPolicyAutomated struct {
	Prune    bool `json:"prune,omitempty"`
	SelfHeal bool `json:"selfHeal,omitempty"`
}

// InfoItem is a human-readable key/value shown in the Argo CD UI.
type InfoItem struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}
