package provenance

import (
	"fmt"
	"log/slog"

	git "github.com/go-git/go-git/v5"
)

// OCI pre-defined annotation keys stamped onto built images.
const (
	LabelRevision = "org.opencontainers.image.revision"
	LabelDirty    = "io.botstrap.source.dirty"
)

// Labels inspects the application source tree and, when it is a git work
// tree, returns image labels recording the commit it was built from. A
// source tree that is not under version control yields no labels and no
// error; provenance is best-effort.
func Labels(sourceDir string) (map[string]string, error) {
	repo, err := git.PlainOpenWithOptions(sourceDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if err == git.ErrRepositoryNotExists {
			slog.Debug("Source tree is not a git repository, skipping provenance labels", "source", sourceDir)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open source repository: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		// A freshly initialized repository has no commits yet.
		slog.Debug("Source repository has no HEAD, skipping provenance labels", "source", sourceDir)
		return nil, nil
	}

	labels := map[string]string{
		LabelRevision: head.Hash().String(),
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return labels, nil
	}

	status, err := worktree.Status()
	if err == nil && !status.IsClean() {
		labels[LabelDirty] = "true"
	}

	return labels, nil
}
