package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/JakubekWeg/wc2-sub000/internal/core/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	log []string
}

type probe struct {
	Name    string `json:"name"`
	Accepts string `json:"accepts,omitempty"`
	Counter int    `json:"counter"`
}

func (p *probe) TypeID() string { return "test:" + p.Name }

func (p *probe) Update(ctx *Context[*env]) {
	p.Counter++
	ctx.Env.log = append(ctx.Env.log, "update:"+p.Name)
}

func (p *probe) OnPop(ctx *Context[*env]) {
	ctx.Env.log = append(ctx.Env.log, "pop:"+p.Name)
}

func (p *probe) HandleCommand(cmd Command, ctx *Context[*env]) bool {
	return cmd.CommandName() == p.Accepts
}

type order string

func (o order) CommandName() string { return string(o) }

type bounded struct {
	Left int `json:"left"`
}

func (b *bounded) TypeID() string                             { return "test:bounded" }
func (b *bounded) Update(*Context[*env])                      {}
func (b *bounded) OnPop(*Context[*env])                       {}
func (b *bounded) HandleCommand(Command, *Context[*env]) bool { return false }
func (b *bounded) Validate() error {
	if b.Left < 0 {
		return errors.New("negative")
	}
	return nil
}

func testRegistry() *Registry[*env] {
	r := NewRegistry[*env]()
	for _, name := range []string{"root", "walk", "step"} {
		name := name
		r.MustRegister("test:"+name, func() State[*env] { return &probe{Name: name} })
	}
	r.MustRegister("test:bounded", func() State[*env] { return &bounded{} })
	return r
}

func TestPopRunsOnPopAndKeepsRoot(t *testing.T) {
	e := &env{}
	ctx := &Context[*env]{Env: e}
	c := NewController[*env](&probe{Name: "root"})
	c.Push(&probe{Name: "walk"})

	require.True(t, c.Pop(ctx))
	assert.False(t, c.Pop(ctx), "root frame stays")
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, []string{"pop:walk"}, e.log)
}

func TestReplacePopsOldFrameFirst(t *testing.T) {
	e := &env{}
	ctx := &Context[*env]{Env: e}
	c := NewController[*env](&probe{Name: "root"})
	c.Push(&probe{Name: "walk"})

	c.Replace(&probe{Name: "step"}, ctx)
	c.Execute(ctx)
	assert.Equal(t, []string{"pop:walk", "update:step"}, e.log)
	assert.Equal(t, []string{"test:step", "test:root"}, c.TypeIDs())
	assert.Same(t, c, ctx.Machine)
}

func TestDispatchPopsUntilAccepted(t *testing.T) {
	e := &env{}
	ctx := &Context[*env]{Env: e}
	c := NewController[*env](&probe{Name: "root", Accepts: "move"})
	c.Push(&probe{Name: "walk", Accepts: "stop"})
	c.Push(&probe{Name: "step"})

	assert.True(t, c.Dispatch(order("move"), ctx))
	assert.Equal(t, []string{"pop:step", "pop:walk"}, e.log)
	assert.Equal(t, 1, c.Len())

	assert.False(t, c.Dispatch(order("fly"), ctx))
	assert.Equal(t, 1, c.Len())
}

func TestClearPopsEveryFrame(t *testing.T) {
	e := &env{}
	c := NewController[*env](&probe{Name: "root"})
	c.Push(&probe{Name: "walk"})
	c.Clear(&Context[*env]{Env: e})
	assert.Equal(t, 0, c.Len())
	assert.Nil(t, c.Get())
	assert.Equal(t, []string{"pop:walk", "pop:root"}, e.log)
}

func TestSaveDecodeRoundTrip(t *testing.T) {
	r := testRegistry()
	c := NewController[*env](&probe{Name: "root", Accepts: "move", Counter: 3})
	c.Push(&probe{Name: "walk", Counter: 7})
	c.Push(&bounded{Left: 2})

	saved, err := c.Save()
	require.NoError(t, err)
	require.Len(t, saved, 3)

	var top map[string]any
	require.NoError(t, json.Unmarshal(saved[0], &top))
	assert.Equal(t, "test:bounded", top["typeId"])
	assert.EqualValues(t, 2, top["left"])

	back, err := r.Decode(saved)
	require.NoError(t, err)
	assert.Equal(t, c.TypeIDs(), back.TypeIDs())
	assert.Equal(t, &probe{Name: "walk", Counter: 7}, back.stack[1])

	again, err := back.Save()
	require.NoError(t, err)
	for i := range saved {
		assert.JSONEq(t, string(saved[i]), string(again[i]))
	}
}

func TestDecodeErrors(t *testing.T) {
	r := testRegistry()

	_, err := r.Decode(nil)
	assert.ErrorIs(t, err, ErrMalformedSave)

	_, err = r.Decode([]json.RawMessage{json.RawMessage(`{"typeId":"test:ghost"}`)})
	assert.ErrorIs(t, err, ErrUnknownState)

	_, err = r.Decode([]json.RawMessage{json.RawMessage(`{"name":"root"}`)})
	assert.ErrorIs(t, err, ErrMalformedSave)

	_, err = r.Decode([]json.RawMessage{json.RawMessage(`[1,2]`)})
	assert.ErrorIs(t, err, ErrMalformedSave)

	_, err = r.Decode([]json.RawMessage{json.RawMessage(`{"typeId":"test:bounded","left":-1}`)})
	assert.ErrorIs(t, err, ErrMalformedSave)

	_, err = r.Decode([]json.RawMessage{json.RawMessage(`{"typeId":"test:walk","counter":"x"}`)})
	assert.ErrorIs(t, err, ErrMalformedSave)

	assert.ErrorIs(t, r.Register("test:root", nil), ErrDuplicateState)
	assert.Equal(t, []string{"test:bounded", "test:root", "test:step", "test:walk"}, r.TypeIDs())
}

type lookout struct{ probe }

func (l *lookout) EntityEnteredSightRange(ctx *Context[*env], other ecs.EntityID) {
	ctx.Machine.Push(&probe{Name: "chase"})
	ctx.Env.log = append(ctx.Env.log, fmt.Sprintf("enter:%d", other))
}

func (l *lookout) EntityLeftSightRange(ctx *Context[*env], other ecs.EntityID) {
	ctx.Env.log = append(ctx.Env.log, fmt.Sprintf("leave:%d", other))
}

func TestSightForwardingBindsMachine(t *testing.T) {
	e := &env{}
	c := NewController[*env](&probe{Name: "root"})
	assert.False(t, c.EnteredSight(5, &Context[*env]{Env: e}), "root does not observe sight")

	c.Push(&lookout{probe{Name: "watch"}})
	assert.True(t, c.LeftSight(4, &Context[*env]{Env: e}))
	assert.True(t, c.EnteredSight(5, &Context[*env]{Env: e}))
	assert.Equal(t, []string{"leave:4", "enter:5"}, e.log)
	assert.Equal(t, []string{"test:chase", "test:watch", "test:root"}, c.TypeIDs())
}
