package judge

import "sync"

// IdentityPool hands out (uid, gid) pairs from a configured contiguous
// range, rotating monotonically (spec §4.B). It does not track liveness:
// two concurrent jobs may receive identical IDs once concurrency exceeds
// the configured range. The Job design tolerates this — see spec §9 —
// because workspaces are UUID-keyed and process-group kills are
// pid-keyed, not uid-keyed. A stronger semaphore-backed pool would change
// that contract; this one deliberately doesn't.
type IdentityPool struct {
	mu sync.Mutex

	uidMin, uidRange int
	gidMin, gidRange int
	cu, cg           int
}

// NewIdentityPool builds a pool over [uidMin, uidMax] x [gidMin, gidMax].
// Both ranges must be non-empty (max >= min); Config.Validate enforces
// this before a pool is ever constructed.
func NewIdentityPool(uidMin, uidMax, gidMin, gidMax int) *IdentityPool {
	return &IdentityPool{
		uidMin:   uidMin,
		uidRange: uidMax - uidMin + 1,
		gidMin:   gidMin,
		gidRange: gidMax - gidMin + 1,
	}
}

// Allocate returns the next (uid, gid) pair. Non-blocking, never fails.
func (p *IdentityPool) Allocate() (uid, gid int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	uid = p.uidMin + p.cu
	gid = p.gidMin + p.cg
	p.cu = (p.cu + 1) % p.uidRange
	p.cg = (p.cg + 1) % p.gidRange
	return uid, gid
}
