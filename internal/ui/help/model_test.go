package help

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/ghnotify/internal/keys"
)

func TestView_ListsBindingsAndTabs(t *testing.T) {
	km := keys.DefaultKeyMap()
	m := New(km, 100, 40)

	out := m.View()
	assert.Contains(t, out, "Keyboard Shortcuts")
	assert.Contains(t, out, "mark read")
	assert.Contains(t, out, "REVIEW REQUESTED")
	assert.Contains(t, out, "approval_requested")
}
