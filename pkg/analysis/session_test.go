package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gelquant/internal/models"
	"gelquant/pkg/config"
)

func TestSessionGenerations(t *testing.T) {
	s := NewSession(nil)
	img := gelImage()

	first, err := s.Submit(context.Background(), img, config.DefaultSettings(), models.NewManualOverrides())
	require.NoError(t, err)
	second, err := s.Submit(context.Background(), img, config.DefaultSettings(), models.NewManualOverrides())
	require.NoError(t, err)

	assert.Equal(t, uint64(1), first.Generation)
	assert.Equal(t, uint64(2), second.Generation)
	assert.True(t, s.IsCurrent(2))
}

func TestSessionDiscardsSupersededRun(t *testing.T) {
	s := NewSession(NewProcessor(&Params{NumCores: 2}))
	s.afterRun = func() {
		// a newer request arrives while this one is finishing
		s.afterRun = nil
		s.next(context.Background())
	}

	_, err := s.Submit(context.Background(), gelImage(), config.DefaultSettings(), models.NewManualOverrides())
	assert.ErrorIs(t, err, ErrSuperseded)
	assert.Equal(t, uint64(2), s.Generation())
}

func TestSessionCancelsPreviousRun(t *testing.T) {
	s := NewSession(nil)
	gen1, ctx1 := s.next(context.Background())
	gen2, ctx2 := s.next(context.Background())

	assert.ErrorIs(t, ctx1.Err(), context.Canceled)
	assert.NoError(t, ctx2.Err())
	assert.False(t, s.IsCurrent(gen1))
	assert.True(t, s.IsCurrent(gen2))

	s.release(gen1)
	assert.NoError(t, ctx2.Err(), "releasing an old generation leaves the new one running")
	s.release(gen2)
	assert.ErrorIs(t, ctx2.Err(), context.Canceled)
}
