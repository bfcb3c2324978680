package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/millwork-dev/millwork/pkg/charge"
	"github.com/millwork-dev/millwork/pkg/errors"
	"github.com/millwork-dev/millwork/pkg/item"
	"github.com/millwork-dev/millwork/pkg/machine"
	"github.com/millwork-dev/millwork/pkg/recipe"
	"github.com/millwork-dev/millwork/pkg/serializer"
)

const (
	cobble = item.ID("minecraft:cobblestone")
	gravel = item.ID("minecraft:gravel")
)

func newMachine(t *testing.T, id string) *machine.Machine {
	t.Helper()
	reg := recipe.NewRegistry()
	require.True(t, reg.Define(item.Of(cobble)).Output(gravel, 1).Duration(10).Register().OK())

	cfg := machine.DefaultConfig()
	cfg.Progress = machine.ProgressKeep
	m, err := machine.New(reg, machine.WithID(id), machine.WithConfig(cfg), machine.WithSeed(1),
		machine.WithProvider(charge.Unlimited{}))
	require.NoError(t, err)
	return m
}

// exerciseStore runs the behaviour every Store must share.
func exerciseStore(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()

	m := newMachine(t, "crusher-1")
	require.True(t, m.Insert(0, item.NewStack(cobble, 5)).IsEmpty())
	for range 3 {
		m.Tick()
	}

	_, err := st.Load(ctx, "crusher-1")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))

	require.NoError(t, st.Save(ctx, m.Snapshot("test")))
	require.NoError(t, st.Save(ctx, newMachine(t, "crusher-2").Snapshot("test")))

	ids, err := st.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"crusher-1", "crusher-2"}, ids)

	snap, err := st.Load(ctx, "crusher-1")
	require.NoError(t, err)
	assert.Equal(t, "crusher-1", snap.ID)
	assert.Equal(t, 3, snap.Progress)
	require.Len(t, snap.Slots, 1)
	assert.Equal(t, item.NewStack(cobble, 5), snap.Slots[0].Stack)

	restored := newMachine(t, "other")
	require.NoError(t, restored.Restore(snap))
	assert.Equal(t, "crusher-1", restored.ID())
	assert.Equal(t, 3, restored.Progress())
	assert.Equal(t, m.Charge(), restored.Charge())

	// Save overwrites.
	for range 2 {
		m.Tick()
	}
	require.NoError(t, st.Save(ctx, m.Snapshot("test")))
	snap, err = st.Load(ctx, "crusher-1")
	require.NoError(t, err)
	assert.Equal(t, 5, snap.Progress)

	require.NoError(t, st.Delete(ctx, "crusher-2"))
	require.NoError(t, st.Delete(ctx, "crusher-2"))
	ids, err = st.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"crusher-1"}, ids)

	assert.Error(t, st.Save(ctx, nil))
	for _, bad := range []string{"", "..", "a/b"} {
		_, err := st.Load(ctx, bad)
		assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidRequest), "id %q", bad)
	}
}

func TestFileStore(t *testing.T) {
	for _, f := range []serializer.Format{serializer.FormatYAML, serializer.FormatJSON} {
		t.Run(string(f), func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "state")
			st, err := NewFileStore(dir, WithFormat(f))
			require.NoError(t, err)
			assert.Equal(t, dir, st.Dir())
			exerciseStore(t, st)

			_, err = os.Stat(filepath.Join(dir, "crusher-1."+f.Extension()))
			assert.NoError(t, err)
		})
	}
}

func TestFileStore_IgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	st, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".crusher.yaml.123"), []byte("x"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.yaml"), 0o755))

	ids, err := st.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFileStore_CorruptDocument(t *testing.T) {
	dir := t.TempDir()
	st, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("slots: [unterminated"), 0o600))

	_, err = st.Load(context.Background(), "bad")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInternal))
}

func TestConfigMapStore(t *testing.T) {
	cs := fake.NewClientset()
	st := NewConfigMapStore(cs, "factory")
	assert.Equal(t, "factory", st.Namespace())
	exerciseStore(t, st)

	cm, err := cs.CoreV1().ConfigMaps("factory").Get(context.Background(), "millwork-crusher-1", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "crusher-1", cm.Labels[LabelMachine])
	assert.Equal(t, "machinesnapshot", cm.Labels[serializer.LabelComponent])
	assert.Equal(t, "yaml", cm.Data["format"])
	assert.Contains(t, cm.Data, "machinesnapshot.yaml")
	require.NotNil(t, cm.Immutable)
	assert.False(t, *cm.Immutable)
}

func TestConfigMapStore_InvalidName(t *testing.T) {
	st := NewConfigMapStore(fake.NewClientset(), "factory")
	m := newMachine(t, "Upper_Case")
	err := st.Save(context.Background(), m.Snapshot("test"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidRequest))
}

func TestOpen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "state")
	st, err := Open(dir)
	require.NoError(t, err)
	fs, ok := st.(*FileStore)
	require.True(t, ok)
	assert.Equal(t, dir, fs.Dir())

	_, err = Open("  ")
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidRequest))
}
