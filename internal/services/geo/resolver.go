// Package geo resolves approximate locations for scoring's proximity boost.
// Both lookups are best-effort and nullable; a miss or an error degrades to
// no boost, never to a routing failure.
package geo

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
	"time"

	"upiroute/internal/repositories"
	"upiroute/internal/repositories/cache"
)

const branchCacheTTL = time.Hour

type cachedLocation struct {
	City  string `json:"city"`
	State string `json:"state"`
}

type originRegion struct {
	network *net.IPNet
	city    string
	state   string
}

// Resolver maps bank branch codes onto locations via the branch directory
// and caller IPs onto regions via a statically configured CIDR table.
type Resolver struct {
	branches repositories.BranchRepository
	cache    *cache.CacheService
	regions  []originRegion
}

// NewResolver parses the origin table, formatted as
// "10.1.0.0/16=Mumbai,Maharashtra;10.2.0.0/16=Pune,Maharashtra".
// Malformed entries are logged and skipped.
func NewResolver(branches repositories.BranchRepository, cacheService *cache.CacheService, originTable string) *Resolver {
	r := &Resolver{branches: branches, cache: cacheService}

	for _, entry := range strings.Split(originTable, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			log.Printf("skipping malformed origin table entry %q", entry)
			continue
		}
		_, network, err := net.ParseCIDR(strings.TrimSpace(parts[0]))
		if err != nil {
			log.Printf("skipping origin table entry %q: %v", entry, err)
			continue
		}
		loc := strings.SplitN(parts[1], ",", 2)
		region := originRegion{network: network, city: strings.TrimSpace(loc[0])}
		if len(loc) == 2 {
			region.state = strings.TrimSpace(loc[1])
		}
		r.regions = append(r.regions, region)
	}
	return r
}

// ResolveBranch returns the branch's city and state, empty on a miss.
func (r *Resolver) ResolveBranch(ctx context.Context, branchCode string) (string, string) {
	if branchCode == "" || r.branches == nil {
		return "", ""
	}

	key := fmt.Sprintf("geo:branch:%s", branchCode)
	if r.cache != nil {
		var loc cachedLocation
		if found, err := r.cache.Get(ctx, key, &loc); err == nil && found {
			return loc.City, loc.State
		}
	}

	branch, err := r.branches.GetByCode(ctx, branchCode)
	if err != nil {
		log.Printf("branch lookup failed for %s: %v", branchCode, err)
		return "", ""
	}
	if branch == nil {
		return "", ""
	}

	if r.cache != nil {
		loc := cachedLocation{City: branch.City, State: branch.State}
		if err := r.cache.SetWithTTL(ctx, key, loc, branchCacheTTL); err != nil {
			log.Printf("failed to cache branch %s: %v", branchCode, err)
		}
	}
	return branch.City, branch.State
}

// ResolveOrigin maps a caller IP onto an approximate region, empty on a miss.
func (r *Resolver) ResolveOrigin(_ context.Context, ip string) (string, string) {
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return "", ""
	}
	for _, region := range r.regions {
		if region.network.Contains(parsed) {
			return region.city, region.state
		}
	}
	return "", ""
}
