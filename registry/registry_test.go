package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetforge/sceneforge/asserr"
	"github.com/assetforge/sceneforge/ioset"
	"github.com/assetforge/sceneforge/scene"
)

func fakeImporter(name string, exts []string, sniff func(data []byte, force bool) bool) Importer {
	return Importer{
		Name:       name,
		Extensions: exts,
		Flags:      TextFlavour,
		CanRead:    sniff,
		Read: func(fs ioset.FileSystem, path string) (*scene.Scene, error) {
			sc := scene.New()
			sc.Root.Name = name
			return sc, nil
		},
	}
}

func alwaysTrue(data []byte, force bool) bool  { return true }
func alwaysFalse(data []byte, force bool) bool { return false }

func TestImportExtensionFilterPicksSingleCandidateWithoutForceCheck(t *testing.T) {
	fs := ioset.NewMemFS()
	fs.Put("model.foo", []byte("foo-data"))

	r := New()
	var sawForce bool
	r.RegisterImporter(fakeImporter("foofmt", []string{"foo"}, func(data []byte, force bool) bool {
		sawForce = force
		return true
	}))
	r.RegisterImporter(fakeImporter("barfmt", []string{"bar"}, alwaysTrue))

	sc, err := r.Import(fs, "model.foo", Hints{})
	require.NoError(t, err)
	assert.Equal(t, "foofmt", sc.Root.Name)
	assert.False(t, sawForce, "force_check should be false when only one importer matches the extension")
}

func TestImportForceChecksWhenMultipleExtensionsMatch(t *testing.T) {
	fs := ioset.NewMemFS()
	fs.Put("model.foo", []byte("foo-data"))

	r := New()
	var forceSeen []bool
	record := func(accept bool) func([]byte, bool) bool {
		return func(data []byte, force bool) bool {
			forceSeen = append(forceSeen, force)
			return accept
		}
	}
	r.RegisterImporter(fakeImporter("first", []string{"foo"}, record(false)))
	r.RegisterImporter(fakeImporter("second", []string{"foo"}, record(true)))

	sc, err := r.Import(fs, "model.foo", Hints{})
	require.NoError(t, err)
	assert.Equal(t, "second", sc.Root.Name)
	require.Len(t, forceSeen, 2)
	assert.True(t, forceSeen[0])
	assert.True(t, forceSeen[1])
}

func TestImportFallsBackToAllImportersWhenExtensionUnmatched(t *testing.T) {
	fs := ioset.NewMemFS()
	fs.Put("model.unknownext", []byte("data"))

	r := New()
	r.RegisterImporter(fakeImporter("foofmt", []string{"foo"}, alwaysFalse))
	r.RegisterImporter(fakeImporter("barfmt", []string{"bar"}, alwaysTrue))

	sc, err := r.Import(fs, "model.unknownext", Hints{})
	require.NoError(t, err)
	assert.Equal(t, "barfmt", sc.Root.Name)
}

func TestImportExplicitFormatHintBypassesSniffing(t *testing.T) {
	fs := ioset.NewMemFS()
	fs.Put("model.foo", []byte("data"))

	r := New()
	r.RegisterImporter(fakeImporter("foofmt", []string{"foo"}, alwaysFalse))

	sc, err := r.Import(fs, "model.foo", Hints{ExplicitFormat: "foofmt"})
	require.NoError(t, err)
	assert.Equal(t, "foofmt", sc.Root.Name)
}

func TestImportUnknownFormatWhenNothingMatches(t *testing.T) {
	fs := ioset.NewMemFS()
	fs.Put("model.foo", []byte("data"))

	r := New()
	r.RegisterImporter(fakeImporter("foofmt", []string{"foo"}, alwaysFalse))

	_, err := r.Import(fs, "model.foo", Hints{})
	require.Error(t, err)
	k, ok := asserr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, asserr.UnknownFormat, k)
}

func TestImportRunsPostProcessRunnerOnSuccess(t *testing.T) {
	fs := ioset.NewMemFS()
	fs.Put("model.foo", []byte("foo-data"))

	r := New()
	r.RegisterImporter(fakeImporter("foofmt", []string{"foo"}, alwaysTrue))

	var gotName string
	var gotProps *Properties
	r.SetPostProcessRunner(func(sc *scene.Scene, props *Properties) error {
		gotName = sc.Root.Name
		gotProps = props
		sc.Root.Name = "post-processed"
		return nil
	})

	sc, err := r.Import(fs, "model.foo", Hints{})
	require.NoError(t, err)
	assert.Equal(t, "foofmt", gotName, "runner should observe the freshly decoded scene")
	assert.Same(t, r.Properties(), gotProps, "runner should receive the Registry's own Properties store")
	assert.Equal(t, "post-processed", sc.Root.Name, "Import should return the scene as left by the runner")
}

func TestImportPropagatesPostProcessRunnerError(t *testing.T) {
	fs := ioset.NewMemFS()
	fs.Put("model.foo", []byte("foo-data"))

	r := New()
	r.RegisterImporter(fakeImporter("foofmt", []string{"foo"}, alwaysTrue))

	wantErr := asserr.New(asserr.PostProcessFailed, "pass blew up")
	r.SetPostProcessRunner(func(sc *scene.Scene, props *Properties) error {
		return wantErr
	})

	_, err := r.Import(fs, "model.foo", Hints{})
	require.Error(t, err)
	assert.Equal(t, wantErr, err)
}

func TestImportSkipsPostProcessOnDispatchFailure(t *testing.T) {
	fs := ioset.NewMemFS()
	fs.Put("model.foo", []byte("foo-data"))

	r := New()
	r.RegisterImporter(fakeImporter("foofmt", []string{"foo"}, alwaysFalse))

	ran := false
	r.SetPostProcessRunner(func(sc *scene.Scene, props *Properties) error {
		ran = true
		return nil
	})

	_, err := r.Import(fs, "model.foo", Hints{})
	require.Error(t, err)
	assert.False(t, ran, "the post-process runner must not see a scene when dispatch itself failed")
}

func TestExportSelectsByExplicitName(t *testing.T) {
	r := New()
	var written string
	r.RegisterExporter(Exporter{
		Name:      "fakefmt",
		Extension: "fk",
		Write: func(sc *scene.Scene, w WriteSeeker) error {
			_, err := w.Write([]byte("ok"))
			written = "fakefmt"
			return err
		},
	})

	var buf bufWriter
	err := r.Export(scene.New(), &buf, "fakefmt")
	require.NoError(t, err)
	assert.Equal(t, "fakefmt", written)
	assert.Equal(t, "ok", string(buf.data))
}

func TestExportUnknownFormat(t *testing.T) {
	r := New()
	err := r.Export(scene.New(), &bufWriter{}, "nofmt")
	require.Error(t, err)
}

func TestPropertiesDefaultsAndOverrides(t *testing.T) {
	p := NewProperties()
	assert.Equal(t, 4, p.Int("postprocess.limit_bone_weights.max_weights", 4))
	p.SetInt("postprocess.limit_bone_weights.max_weights", 2)
	assert.Equal(t, 2, p.Int("postprocess.limit_bone_weights.max_weights", 4))

	assert.False(t, p.Bool("import.fbx.read_materials", false))
	p.SetBool("import.fbx.read_materials", true)
	assert.True(t, p.Bool("import.fbx.read_materials", false))
}

type bufWriter struct{ data []byte }

func (b *bufWriter) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}
