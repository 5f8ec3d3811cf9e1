package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampUrgency(t *testing.T) {
	assert.Equal(t, UrgencyLow, ClampUrgency(0))
	assert.Equal(t, UrgencyNormal, ClampUrgency(1))
	assert.Equal(t, UrgencyCritical, ClampUrgency(2))
	assert.Equal(t, UrgencyNormal, ClampUrgency(99))
	assert.Equal(t, UrgencyNormal, ClampUrgency(-1))
}

func TestNewRecordDefaults(t *testing.T) {
	r := New("slack", 100)
	require.NotNil(t, r)
	assert.Equal(t, "slack", r.AppName)
	assert.Equal(t, int64(100), r.Arrival)
	assert.Equal(t, 1, r.RefCount())
	assert.Equal(t, -1, r.Hints.Progress)
	assert.False(t, r.Locked())
}

func TestRefUnref(t *testing.T) {
	r := New("app", 0)
	r.Ref()
	assert.Equal(t, 2, r.RefCount())
	assert.False(t, r.Unref())
	assert.Equal(t, 1, r.RefCount())
	assert.True(t, r.Unref())
	assert.Equal(t, 0, r.RefCount())
	// Unref below zero clamps rather than going negative.
	assert.True(t, r.Unref())
	assert.Equal(t, 0, r.RefCount())
}

func TestLockUnlock(t *testing.T) {
	r := New("app", 0)
	assert.False(t, r.Locked())
	r.Lock()
	assert.True(t, r.Locked())
	r.Unlock()
	assert.False(t, r.Locked())
}

func TestCloneIsIndependent(t *testing.T) {
	r := New("app", 0)
	r.Actions["a1"] = "Open"
	r.RawIcon = &RawIcon{Width: 2, Height: 2, Data: []byte{1, 2, 3, 4}}

	c := r.Clone()
	c.Actions["a2"] = "Close"
	c.RawIcon.Data[0] = 99

	assert.Len(t, r.Actions, 1, "mutating the clone's actions must not affect the original")
	assert.Equal(t, byte(1), r.RawIcon.Data[0], "mutating the clone's raw icon must not affect the original")
}

func TestHasRawIcon(t *testing.T) {
	r := New("app", 0)
	assert.False(t, r.HasRawIcon())
	r.RawIcon = &RawIcon{}
	assert.True(t, r.HasRawIcon())
}

func TestMaxImageDataLen(t *testing.T) {
	// 4 channels (RGBA), 8 bits per sample -> 4 bytes/pixel.
	got := MaxImageDataLen(10, 5, 40, 4, 8)
	want := (5-1)*40 + 10*4
	assert.Equal(t, want, got)
}

func TestNewBorrowIDIsUnique(t *testing.T) {
	a := NewBorrowID()
	b := NewBorrowID()
	assert.NotEqual(t, a, b)
}
