package manifest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"text/template"

	"github.com/strandline/warden/pkg/provider"
)

// TemplateSource implements provider.Source by rendering a
// text/template file from a template root directory against a fixed
// fact map, for File resources declared with a "template"
// attribute. Plain, non-templated sources should use a provider.Source
// that serves file contents directly instead.
type TemplateSource struct {
	root  string
	facts map[string]string
}

// NewTemplateSource returns a Source rooted at dir, rendering every
// requested key as dir/key with facts available to the template.
func NewTemplateSource(dir string, facts map[string]string) *TemplateSource {
	return &TemplateSource{root: dir, facts: facts}
}

// Open renders the template named by key and returns it as a stream,
// along with its rendered length.
func (s *TemplateSource) Open(_ context.Context, key string) (io.ReadCloser, int64, error) {
	path := filepath.Join(s.root, key)
	tmpl, err := template.New(filepath.Base(path)).ParseFiles(path)
	if err != nil {
		return nil, -1, fmt.Errorf("manifest: parse template %s: %w", path, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, filepath.Base(path), s.facts); err != nil {
		return nil, -1, fmt.Errorf("manifest: render template %s: %w", path, err)
	}

	return io.NopCloser(&buf), int64(buf.Len()), nil
}

var _ provider.Source = (*TemplateSource)(nil)
