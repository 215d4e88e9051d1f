package syncmanager

import "sync"

// repoLockRegistry hands out one *sync.Mutex per repository id, the same
// shape as the teacher's repomanager.manager.repoMux (a sync.Map of per-repo
// mutexes), generalized so the whole repository — not a single collection —
// is the unit of exclusion (§5 "per-repository").
type repoLockRegistry struct {
	locks sync.Map // repoID string -> *sync.Mutex
}

func (r *repoLockRegistry) lockFor(repoID string) *sync.Mutex {
	v, _ := r.locks.LoadOrStore(repoID, &sync.Mutex{})
	return v.(*sync.Mutex)
}
