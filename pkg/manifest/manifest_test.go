package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/strandline/warden/pkg/policy"
	"github.com/strandline/warden/pkg/resource"
)

func writeManifest(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoadAndApplyBuildsPolicy(t *testing.T) {
	path := writeManifest(t, `
resources:
  - kind: User
    key: web
    attrs:
      uid: "1001"
      shell: /bin/bash
  - kind: Dir
    key: /srv/www
    attrs:
      owner: web
      mode: "0755"
  - kind: Service
    key: nginx
    attrs:
      running: "yes"
`)

	doc, err := Load(path)
	require.NoError(t, err)
	require.Len(t, doc.Resources, 3)

	pol := policy.New()
	require.NoError(t, Apply(doc, pol))

	resources := pol.Resources()
	require.Len(t, resources, 3)
	require.Equal(t, resource.KindUser, resources[0].Kind())
	require.Equal(t, "web", resources[0].Key())
}

func TestApplyRejectsUnknownKind(t *testing.T) {
	doc := &Document{Resources: []ResourceSpec{{Kind: "Container", Key: "x"}}}
	pol := policy.New()
	err := Apply(doc, pol)
	require.Error(t, err)
}

func TestApplyRejectsInvalidAttribute(t *testing.T) {
	doc := &Document{Resources: []ResourceSpec{
		{Kind: "User", Key: "web", Attrs: map[string]string{"bogus": "1"}},
	}}
	pol := policy.New()
	err := Apply(doc, pol)
	require.Error(t, err)
}
