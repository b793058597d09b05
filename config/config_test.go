package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/enetx/vsm"
	"github.com/enetx/vsm/config"
	"github.com/enetx/vsm/scene"
	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	t.Parallel()

	def, err := config.LoadFile(filepath.Join("testdata", "sphere.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "sphere", def.Name)
	assert.Equal(t, "Sphere", def.Entity)
	assert.Equal(t, "Origin", def.InitialState())
	require.Len(t, def.States, 2)
	require.Len(t, def.Transitions, 2)
	assert.Equal(t, "sequence", def.States[0].Action.Type)
	assert.Equal(t, "pick", def.Transitions[0].Trigger.Type)
}

func TestLoadFile_Missing(t *testing.T) {
	t.Parallel()

	_, err := config.LoadFile(filepath.Join("testdata", "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFS(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"machines/a.yaml": {Data: []byte("entity: Box\nstates:\n  - name: Idle\n")},
	}

	def, err := config.LoadFS(fsys, "machines/a.yaml")
	require.NoError(t, err)
	assert.Equal(t, "Idle", def.InitialState())
	assert.Nil(t, def.States[0].Action)
}

func TestLoad_Malformed(t *testing.T) {
	t.Parallel()

	_, err := config.Load([]byte("states: [\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		yaml string
		want error
	}{
		{"no entity", "states:\n  - name: A\n", config.ErrNoEntity},
		{"no states", "entity: E\n", config.ErrNoStates},
		{"empty state name", "entity: E\nstates:\n  - name: ''\n", config.ErrInvalid},
		{"duplicate state", "entity: E\nstates:\n  - name: A\n  - name: A\n", config.ErrInvalid},
		{"unknown initial", "entity: E\ninitial: B\nstates:\n  - name: A\n", config.ErrInvalid},
		{
			"unknown transition state",
			"entity: E\nstates:\n  - name: A\ntransitions:\n  - {from: A, to: B}\n",
			config.ErrInvalid,
		},
		{"action without type", "entity: E\nstates:\n  - name: A\n    action: {params: {}}\n", config.ErrNoType},
		{
			"trigger without type",
			"entity: E\nstates:\n  - name: A\ntransitions:\n  - {from: A, to: A, trigger: {params: {}}}\n",
			config.ErrNoType,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.Load([]byte(tc.yaml))
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, config.ErrInvalid)
		})
	}
}

func TestBuild_Sphere(t *testing.T) {
	t.Parallel()

	def, err := config.LoadFile(filepath.Join("testdata", "sphere.yaml"))
	require.NoError(t, err)

	sc := scene.New()
	sphere := sc.AddNode("Sphere", vsm.Vec3(5, 5, 5))

	m, err := def.Build(sc, nil, vsm.WithLogger(slogt.New(t)))
	require.NoError(t, err)

	assert.Equal(t, "sphere", m.Name())
	assert.Equal(t, []vsm.State{"Origin", "Destination"}, []vsm.State(m.States()))

	require.NoError(t, m.Start(context.Background()))
	assert.Equal(t, vsm.Vec3(0, 0, 0), sphere.Position())

	sc.Pick("Sphere", vsm.Vector3{})
	assert.Equal(t, vsm.State("Destination"), m.Current().Some())
	assert.Equal(t, vsm.Vec3(1, 1, 1), sphere.Position())

	sc.Pick("Sphere", vsm.Vector3{})
	assert.Equal(t, vsm.State("Origin"), m.Current().Some())
	assert.Equal(t, vsm.Vec3(0, 0, 0), sphere.Position())
}

func TestBuild_Lamp(t *testing.T) {
	t.Parallel()

	def, err := config.LoadFile(filepath.Join("testdata", "lamp.yaml"))
	require.NoError(t, err)

	sc := scene.New()
	lamp := sc.AddNode("Lamp", vsm.Vector3{})
	lamp.SetVisible(false)

	m, err := def.Build(sc, vsm.NewFactory(), vsm.WithLogger(slogt.New(t)))
	require.NoError(t, err)

	ctx := context.Background()

	require.NoError(t, m.Start(ctx))
	assert.True(t, lamp.Visible())

	sc.Signal("toggle", nil, nil)
	assert.Equal(t, vsm.State("Off"), m.Current().Some())
	assert.False(t, lamp.Visible())

	require.NoError(t, m.TransitionTo(ctx, "On"))
	assert.True(t, lamp.Visible())
}

func TestBuild_UnknownEntity(t *testing.T) {
	t.Parallel()

	def, err := config.LoadFile(filepath.Join("testdata", "sphere.yaml"))
	require.NoError(t, err)

	_, err = def.Build(scene.New(), nil)
	assert.ErrorIs(t, err, vsm.ErrUnknownEntity)
}

func TestBuild_UnknownActionKind(t *testing.T) {
	t.Parallel()

	def, err := config.LoadFile(filepath.Join("testdata", "unknown_action.yaml"))
	require.NoError(t, err)

	sc := scene.New()
	sc.AddNode("Sphere", vsm.Vector3{})

	_, err = def.Build(sc, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, vsm.ErrUnknownKind)
	assert.Contains(t, err.Error(), "teleport")
}

func TestBuild_CustomKind(t *testing.T) {
	t.Parallel()

	def, err := config.LoadFile(filepath.Join("testdata", "unknown_action.yaml"))
	require.NoError(t, err)

	sc := scene.New()
	sc.AddNode("Sphere", vsm.Vector3{})

	var ran bool

	f := vsm.NewFactory().RegisterAction("teleport", func(_ *vsm.Factory, r vsm.Resolver, p vsm.Params) (vsm.Action, error) {
		target, err := p.Entity(r, "target")
		if err != nil {
			return nil, err
		}

		return vsm.Func("teleport", func(context.Context, *vsm.Context) error {
			ran = true
			target.SetPosition(vsm.Vec3(9, 9, 9))

			return nil
		}), nil
	})

	m, err := def.Build(sc, f, vsm.WithLogger(slogt.New(t)))
	require.NoError(t, err)
	require.NoError(t, m.Start(context.Background()))

	assert.True(t, ran)
	assert.Equal(t, vsm.Vec3(9, 9, 9), sc.Node("Sphere").Some().Position())
}
