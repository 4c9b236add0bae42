// Package gitmeta reads revision metadata from the repository that holds
// the planning directory, when one exists. It uses go-git's
// PlainOpenWithOptions with DetectDotGit so the planning directory can sit
// anywhere below the repository root.
package gitmeta

import (
	"github.com/go-git/go-git/v5"
)

// shortHashLen matches the abbreviated hash length git itself prints.
const shortHashLen = 12

// SourceRev returns the abbreviated HEAD commit hash for the repository
// containing dir. A missing repository, detached state problems, or any
// other failure yields an empty string: artifacts are still generated,
// just without a revision stamp.
func SourceRev(dir string) string {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		return ""
	}
	hash := head.Hash().String()
	if len(hash) > shortHashLen {
		hash = hash[:shortHashLen]
	}
	return hash
}
