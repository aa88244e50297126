package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLayoutReservesRows(t *testing.T) {
	l := NewLayout(100, 40)
	assert.Equal(t, 38, l.ContentHeight())
	assert.Equal(t, 37, l.WithBanner(true).ContentHeight())
	assert.Equal(t, 38, l.WithBanner(true).WithBanner(false).ContentHeight())

	small := NewLayout(10, 1).WithBanner(true)
	assert.Zero(t, small.ContentHeight())
}

func TestLayoutSidebarWidth(t *testing.T) {
	l := NewLayout(100, 40)
	assert.Zero(t, l.SidebarWidth())
	assert.Equal(t, 100, l.ContentWidth())

	side := l.WithSidebar(true)
	assert.Equal(t, sidebarColumns, side.SidebarWidth())
	assert.Equal(t, 100-sidebarColumns, side.ContentWidth())
	assert.Zero(t, NewLayout(10, 5).WithSidebar(true).ContentWidth())
}

func TestRenderBannerHiddenByDefault(t *testing.T) {
	l := NewLayout(80, 24)
	assert.Empty(t, l.RenderBanner("Read-only"))
	assert.Contains(t, l.WithBanner(true).RenderBanner("Read-only"), "Read-only")
	assert.Equal(t, "content", l.RenderBody("sidebar", "content"))
}
