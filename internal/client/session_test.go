package client

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLifecycle(t *testing.T) {
	storage := &MemoryStorage{}
	s := NewSession(storage)
	assert.Equal(t, StateUninitialized, s.State())

	profile := Profile{ID: 7, Email: "a@b.com", Name: "Ada", Role: "organizer"}
	s.SetAuthenticated(profile, "T1")

	assert.Equal(t, StateAuthenticated, s.State())
	got, ok := s.Profile()
	require.True(t, ok)
	assert.Equal(t, profile, got)
	assert.Equal(t, "T1", s.Credential())
	stored, _ := storage.Load()
	assert.Equal(t, "T1", stored)

	// A renewal swaps the credential and leaves the profile untouched.
	s.SetCredential("T2")
	got, ok = s.Profile()
	require.True(t, ok)
	assert.Equal(t, profile, got)
	assert.Equal(t, "T2", s.Credential())
	stored, _ = storage.Load()
	assert.Equal(t, "T2", stored)

	s.Clear()
	assert.Equal(t, StateAnonymous, s.State())
	_, ok = s.Profile()
	assert.False(t, ok)
	assert.Empty(t, s.Credential())
	stored, _ = storage.Load()
	assert.Empty(t, stored)
}

func TestSessionConcurrentReadersSeeSettledWrites(t *testing.T) {
	s := NewSession(&MemoryStorage{})
	s.SetAuthenticated(Profile{ID: 1}, "T1")

	// Hammer the credential with renewals while readers poll; every read
	// must observe one of the written values, never a torn intermediate.
	valid := map[string]bool{"T1": true}
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			tok := string(rune('A' + i))
			mu.Lock()
			valid[tok] = true
			mu.Unlock()
			s.SetCredential(tok)
		}(i)
		go func() {
			defer wg.Done()
			got := s.Credential()
			mu.Lock()
			defer mu.Unlock()
			assert.True(t, valid[got], "read unexpected credential %q", got)
		}()
	}
	wg.Wait()
}

func TestFileStorageRoundTrip(t *testing.T) {
	storage := &FileStorage{Path: filepath.Join(t.TempDir(), "credentials.json")}

	// Absent file reads as no credential.
	tok, err := storage.Load()
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, storage.Save("T1"))
	tok, err = storage.Load()
	require.NoError(t, err)
	assert.Equal(t, "T1", tok)

	require.NoError(t, storage.Clear())
	tok, err = storage.Load()
	require.NoError(t, err)
	assert.Empty(t, tok)

	// Clearing twice is fine.
	require.NoError(t, storage.Clear())
}
