package memory

import (
	"testing"
	"time"

	"plantguard-be/pkg/advisory"

	"github.com/stretchr/testify/assert"
)

func sampleAdvisory() advisory.Advisory {
	return advisory.Advisory{English: advisory.Section{Summary: "ok"}, Hindi: advisory.Section{Summary: "ठीक"}}
}

func TestAdvisoryKey(t *testing.T) {
	assert.Equal(t, "Tomato___Late_blight|87.0|34.5", AdvisoryKey("Tomato___Late_blight", 0.87, 34.5))
	assert.Equal(t, AdvisoryKey("x", 0.87001, 34.501), AdvisoryKey("x", 0.87, 34.5))
	assert.NotEqual(t, AdvisoryKey("x", 0.87, 34.5), AdvisoryKey("y", 0.87, 34.5))
}

func TestAdvisoryRepository_SaveGet(t *testing.T) {
	repo := NewAdvisoryRepository(time.Hour)
	key := AdvisoryKey("x", 0.5, 10)

	_, found := repo.Get(key)
	assert.False(t, found)

	repo.Save(key, sampleAdvisory())
	got, found := repo.Get(key)
	assert.True(t, found)
	assert.Equal(t, sampleAdvisory(), got)
	assert.Equal(t, 1, repo.Len())
}

func TestAdvisoryRepository_SkipsDegraded(t *testing.T) {
	repo := NewAdvisoryRepository(time.Hour)
	repo.Save("k", advisory.Fallback("Tomato___Late_blight"))

	_, found := repo.Get("k")
	assert.False(t, found)
}

func TestAdvisoryRepository_Disabled(t *testing.T) {
	repo := NewAdvisoryRepository(0)
	repo.Save("k", sampleAdvisory())

	_, found := repo.Get("k")
	assert.False(t, found)
}

func TestAdvisoryRepository_Expiry(t *testing.T) {
	repo := NewAdvisoryRepository(20 * time.Millisecond)
	repo.Save("k", sampleAdvisory())
	time.Sleep(40 * time.Millisecond)

	_, found := repo.Get("k")
	assert.False(t, found)
}
