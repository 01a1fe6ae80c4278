// SPDX-License-Identifier: MPL-2.0

package steps

import (
	"context"

	"github.com/relkit/relkit/internal/release"
)

// Config logs the resolved project model.
type Config struct {
	rc *release.Context
}

func (s *Config) Command() string { return ConfigCommand }

func (s *Config) Invoke(context.Context) error {
	m := s.rc.Model()
	log := s.rc.Log()

	log.Info("project", "name", m.Project.Name, "version", m.Project.Version, "pattern", m.Project.VersionPattern)
	log.Info("release", "tag", m.TagName(), "push", m.Release.Push, "remote", m.Release.Remote)
	log.Info("paths", "basedir", s.rc.BaseDir(), "output", s.rc.OutputDir())
	log.Info("artifacts", "count", len(m.Artifacts), "checksums", m.Checksum.Algorithms)
	for _, u := range m.Upload.S3 {
		log.Info("uploader", "name", u.Name, "type", "s3", "enabled", u.IsEnabled(), "bucket", u.Bucket)
	}
	for _, a := range m.Announce.Webhooks {
		log.Info("announcer", "name", a.Name, "type", "webhook", "enabled", a.IsEnabled())
	}
	for _, e := range m.Extensions {
		log.Info("extension", "name", e.Name, "type", e.Type, "enabled", e.IsEnabled())
	}
	return nil
}
