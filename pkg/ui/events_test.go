package ui

import (
	"context"
	"selection_assistant/models/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyEvents(t *testing.T) {
	ctx := context.Background()
	o, _, transport, _, clip := newOverlay(t, validated())

	steps := []struct {
		event Event
		state string
	}{
		{event: Event{Type: "select", Text: "Hello", Rects: word}, state: "menu-visible"},
		{event: Event{Type: "toggleMenu"}, state: "menu-expanded"},
		{event: Event{Type: "hoverEnter", Target: "menu"}, state: "menu-expanded"},
		{event: Event{Type: "pointerMove", Target: "menu"}, state: "menu-expanded"},
		{event: Event{Type: "translate"}, state: "result-visible"},
		{event: Event{Type: "closeResult"}, state: "menu-visible"},
		{event: Event{Type: "copy"}, state: "hidden"},
		{event: Event{Type: "select", Text: "World", Rects: word}, state: "menu-visible"},
		{event: Event{Type: "pointerMove", Target: "page"}, state: "hidden"},
	}
	for _, step := range steps {
		_, err := o.Apply(ctx, step.event)
		require.NoError(t, err, step.event.Type)
		assert.Equal(t, step.state, o.View().State, step.event.Type)
	}

	assert.Equal(t, 1, transport.count())
	assert.Equal(t, "Hello", clip.text)
}

func TestApplyActionReturnsDone(t *testing.T) {
	ctx := context.Background()
	o, _, transport, _, _ := newOverlay(t, validated())
	_, err := o.Apply(ctx, Event{Type: "select", Text: "Hello", Rects: word})
	require.NoError(t, err)

	done, err := o.Apply(ctx, Event{Type: "explain"})
	require.NoError(t, err)
	require.NotNil(t, done)
	assert.Equal(t, models.KindExplain, transport.posts[0].env.Request.Kind)

	transport.reply(0, models.Success("It is a greeting."))
	wait(t, done)
	assert.Equal(t, "It is a greeting.", o.View().Result.Text)
}

func TestApplyRejectsUnknown(t *testing.T) {
	o, _, _, _, _ := newOverlay(t, validated())

	_, err := o.Apply(context.Background(), Event{Type: "scroll"})
	assert.Error(t, err)
	_, err = o.Apply(context.Background(), Event{Type: "pointerMove", Target: "sidebar"})
	assert.Error(t, err)
}
