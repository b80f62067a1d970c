package gitops

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/walbis/minio-to-gitops/src/pkg/models"
)

// WriteNamespaceReadme renders the per-namespace deployment guide:
// resource counts, the environment-to-cluster table, and apply commands.
func (w *Writer) WriteNamespaceReadme(ns *models.NamespaceConfig, configs []models.OverlayConfig) error {
	var summary []string
	for _, category := range ns.Categories() {
		summary = append(summary, fmt.Sprintf("%d %s", len(ns.Resources[category]), category))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s Namespace\n\n", ns.Name)
	fmt.Fprintf(&b, "Auto-generated from the object-store bucket. This namespace contains %d resources.\n\n", ns.FileCount())
	fmt.Fprintf(&b, "## Resources\n\n%s\n\n", strings.Join(summary, ", "))
	b.WriteString("## Environment → Cluster Mapping\n\n")
	b.WriteString("| Environment | Target Cluster | Namespace | Sync Policy |\n")
	b.WriteString("|-------------|----------------|-----------|-------------|\n")
	for _, cfg := range configs {
		policy := "Manual"
		if cfg.Automated {
			policy = "Auto"
		}
		fmt.Fprintf(&b, "| **%s** | `%s` | `%s` | %s |\n",
			cfg.Environment, ns.ClusterMapping[cfg.Environment], cfg.TargetNamespace, policy)
	}
	b.WriteString("\n## Deployment\n\n")
	for _, cfg := range configs {
		fmt.Fprintf(&b, "### %s\n\n```bash\nkubectl apply -f namespaces/%s/argocd-apps/%s.yaml\n",
			cfg.Environment, ns.Name, cfg.Environment)
		if !cfg.Automated {
			fmt.Fprintf(&b, "argocd app sync %s-%s\n", ns.Name, cfg.Environment)
		}
		b.WriteString("```\n\n")
	}

	path := filepath.Join(w.namespaceDir(ns.Name), "README.md")
	return w.atomicWrite(path, []byte(b.String()))
}

// WriteRootReadme renders the repository overview with one row per
// generated namespace.
func (w *Writer) WriteRootReadme(namespaces []*models.NamespaceConfig, environments []string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Multi-Cluster GitOps\n\n")
	fmt.Fprintf(&b, "Auto-generated GitOps structure with %d namespaces.\n\n", len(namespaces))
	b.WriteString("## Namespaces\n\n")
	b.WriteString("| Namespace | Resources | Documentation |\n")
	b.WriteString("|-----------|-----------|---------------|\n")
	for _, ns := range namespaces {
		fmt.Fprintf(&b, "| **%s** | %d resources | `namespaces/%s/README.md` |\n",
			ns.Name, ns.FileCount(), ns.Name)
	}
	b.WriteString("\n## Environments\n\n")
	for _, env := range environments {
		fmt.Fprintf(&b, "- **%s**\n", env)
	}

	path := filepath.Join(w.outputDir, "README.md")
	return w.atomicWrite(path, []byte(b.String()))
}
