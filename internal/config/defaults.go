package config

// Default locations and limits, relative to the working root.
const (
	DefaultDocsDir       = "content/docs"
	DefaultReferenceDir  = "content/reference"
	DefaultMediaDirName  = "media"
	DefaultMediaOutput   = "public/images/docs"
	DefaultArtifactDir   = "public/og"
	DefaultConcurrency   = 10
	DefaultCloneDepth    = 1
	DefaultSiteTitle     = "Documentation"
	DefaultDescription   = "Product documentation, reference and guides."
	DefaultBlogLimit     = 100
	DefaultNotifySubject = "contentbuilder.run.completed"
	defaultManifestName  = "entities.json"
)

// ApplyDefaults fills unset fields with their defaults. It never overrides
// explicit values.
func (c *ContentConfig) ApplyDefaults() {
	b := &c.Build
	if b.DocsDir == "" {
		b.DocsDir = DefaultDocsDir
	}
	if b.ReferenceDir == "" {
		b.ReferenceDir = DefaultReferenceDir
	}
	if b.MediaDirName == "" {
		b.MediaDirName = DefaultMediaDirName
	}
	if b.MediaOutput == "" {
		b.MediaOutput = DefaultMediaOutput
	}
	if b.ArtifactDir == "" {
		b.ArtifactDir = DefaultArtifactDir
	}
	if b.Manifest == "" {
		b.Manifest = b.ArtifactDir + "/" + defaultManifestName
	}
	if b.Concurrency == 0 {
		b.Concurrency = DefaultConcurrency
	}
	if b.CloneDepth == 0 {
		b.CloneDepth = DefaultCloneDepth
	}
	if b.SiteTitle == "" {
		b.SiteTitle = DefaultSiteTitle
	}
	if b.DefaultDescription == "" {
		b.DefaultDescription = DefaultDescription
	}
	if c.Blog.Limit == 0 {
		c.Blog.Limit = DefaultBlogLimit
	}
	if c.Notify.NATSURL != "" && c.Notify.Subject == "" {
		c.Notify.Subject = DefaultNotifySubject
	}
	for i := range c.Sources {
		if c.Sources[i].Branch == "" {
			c.Sources[i].Branch = "main"
		}
	}
}
