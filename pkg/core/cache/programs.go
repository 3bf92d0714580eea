package cache

import (
	"time"

	"github.com/msto63/kinematics/foundation/kinematic"
)

// ProgramCache caches compiled kinematic programs by source hash
type ProgramCache struct {
	cache *Cache[*kinematic.Program]
	opts  kinematic.Options
}

// NewProgramCache creates a program cache. opts are used for every compilation.
func NewProgramCache(maxItems int, ttl time.Duration, opts kinematic.Options) *ProgramCache {
	return &ProgramCache{
		cache: New[*kinematic.Program](Config{MaxItems: maxItems, TTL: ttl}),
		opts:  opts,
	}
}

// Compile returns the cached program for lines or compiles and stores it.
// The second result reports a cache hit. Programs that fail to compile are
// not cached.
func (c *ProgramCache) Compile(lines []string) (*kinematic.Program, bool, error) {
	return c.cache.GetOrSet(kinematic.SourceHash(lines), func() (*kinematic.Program, error) {
		return kinematic.Compile(lines, c.opts)
	})
}

// Stats returns cache statistics
func (c *ProgramCache) Stats() map[string]interface{} {
	hits, misses, rate := c.cache.Stats()
	return map[string]interface{}{
		"programs_cache_size": c.cache.Size(),
		"programs_hits":       hits,
		"programs_misses":     misses,
		"programs_hit_rate":   rate,
	}
}

// Clear removes all cached programs
func (c *ProgramCache) Clear() {
	c.cache.Clear()
}

// Close stops the background cleanup
func (c *ProgramCache) Close() {
	c.cache.Close()
}
