// SPDX-License-Identifier: MPL-2.0

package steps

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/relkit/relkit/internal/issue"
	"github.com/relkit/relkit/internal/release"
)

const (
	// DefaultTaggerName signs tags when release.author_name is unset.
	DefaultTaggerName = "relkit"
	// DefaultTaggerEmail signs tags when release.author_email is unset.
	DefaultTaggerEmail = "relkit@localhost"
	// defaultUsername is sent with token authentication when no username is set.
	defaultUsername = "relkit"
)

// ErrTagExists is returned when the release tag exists and overwrite is off.
var ErrTagExists = errors.New("tag already exists")

// Tag creates an annotated release tag at HEAD and optionally pushes it.
type Tag struct {
	rc *release.Context
}

func (s *Tag) Command() string { return TagCommand }

func (s *Tag) Invoke(ctx context.Context) error {
	m := s.rc.Model()
	log := s.rc.Log()
	name := m.TagName()
	s.rc.SetTagName(name)

	repo, err := git.PlainOpenWithOptions(s.rc.BaseDir(), &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("open git repository").
			WithResource(s.rc.BaseDir()).
			WithIssue(issue.GitRepositoryNotFoundId).
			WithSuggestion("Run relkit from inside a git repository or pass --basedir").
			Wrap(err).
			BuildError()
	}

	head, err := repo.Head()
	if err != nil {
		return fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	exists := true
	if _, err := repo.Tag(name); errors.Is(err, git.ErrTagNotFound) {
		exists = false
	} else if err != nil {
		return fmt.Errorf("failed to look up tag %s: %w", name, err)
	}
	if exists && !m.Release.Overwrite {
		return issue.NewErrorContext().
			WithOperation("create tag").
			WithResource(name).
			WithSuggestion("Set release.overwrite to replace the tag").
			WithSuggestion("Bump project.version").
			Wrap(fmt.Errorf("%w: %s", ErrTagExists, name)).
			BuildError()
	}

	if s.rc.DryRun() {
		log.Info("would tag", "tag", name, "commit", head.Hash().String(), "overwrite", exists)
		if m.Release.Push {
			log.Info("would push", "tag", name, "remote", m.Release.Remote)
		}
		return nil
	}

	if exists {
		if err := repo.DeleteTag(name); err != nil {
			return fmt.Errorf("failed to delete tag %s: %w", name, err)
		}
		log.Debug("deleted existing tag", "tag", name)
	}

	if _, err := repo.CreateTag(name, head.Hash(), &git.CreateTagOptions{
		Tagger:  s.tagger(),
		Message: fmt.Sprintf("Release %s %s", m.Project.Name, m.Project.Version),
	}); err != nil {
		return fmt.Errorf("failed to create tag %s: %w", name, err)
	}
	s.rc.AddOutput(TagCommand, name)
	log.Info("tagged", "tag", name, "commit", head.Hash().String())

	if !m.Release.Push {
		return nil
	}
	return s.push(ctx, repo, name, exists)
}

func (s *Tag) tagger() *object.Signature {
	r := s.rc.Model().Release
	sig := &object.Signature{Name: r.AuthorName, Email: r.AuthorEmail, When: s.rc.Now()}
	if sig.Name == "" {
		sig.Name = DefaultTaggerName
	}
	if sig.Email == "" {
		sig.Email = DefaultTaggerEmail
	}
	return sig
}

func (s *Tag) push(ctx context.Context, repo *git.Repository, name string, force bool) error {
	r := s.rc.Model().Release
	ref := gitconfig.RefSpec(fmt.Sprintf("refs/tags/%s:refs/tags/%s", name, name))

	var auth transport.AuthMethod
	if r.Token != "" {
		user := r.Username
		if user == "" {
			user = defaultUsername
		}
		auth = &githttp.BasicAuth{Username: user, Password: r.Token}
	}

	err := repo.PushContext(ctx, &git.PushOptions{
		RemoteName: r.Remote,
		RefSpecs:   []gitconfig.RefSpec{ref},
		Auth:       auth,
		Force:      force,
	})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		err = nil
	}
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("push tag").
			WithResource(r.Remote).
			WithSuggestion("Check that the remote exists and the token can push tags").
			Wrap(err).
			BuildError()
	}
	s.rc.Log().Info("pushed", "tag", name, "remote", r.Remote)
	return nil
}
