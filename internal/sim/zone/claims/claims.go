package claims

import (
	"sort"
	"sync"

	"zonecraft.ai/internal/sim/zone/voxel"
)

// Owner identifies a claimant within a domain. Emitters use their origin.
type Owner = voxel.Pos

// Table is the claim table of one effect kind in one domain: voxel -> owner,
// at most one owner per voxel. Ownership only moves through Release followed
// by Claim.
//
// The host ticks a domain's emitters sequentially. The mutex covers callers
// outside the tick, such as admin reads.
type Table struct {
	Domain voxel.DomainID
	Kind   string

	mu     sync.Mutex
	owners map[voxel.Pos]Owner
	held   map[Owner]voxel.Set
}

func NewTable(domain voxel.DomainID, kind string) *Table {
	return &Table{
		Domain: domain,
		Kind:   kind,
		owners: map[voxel.Pos]Owner{},
		held:   map[Owner]voxel.Set{},
	}
}

// Claim grants every candidate that is unowned or already held by owner and
// records the ownership. Candidates held by another owner are left out. The
// result keeps candidate order; duplicates in candidates are granted once.
func (t *Table) Claim(owner Owner, candidates []voxel.Pos) []voxel.Pos {
	if len(candidates) == 0 {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	mine := t.held[owner]
	granted := make([]voxel.Pos, 0, len(candidates))
	seen := make(map[voxel.Pos]struct{}, len(candidates))
	for _, p := range candidates {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		cur, taken := t.owners[p]
		if taken && cur != owner {
			continue
		}
		if !taken {
			t.owners[p] = owner
			if mine == nil {
				mine = voxel.Set{}
				t.held[owner] = mine
			}
			mine[p] = struct{}{}
		}
		granted = append(granted, p)
	}
	return granted
}

// Release drops owner's records for the given voxels. Voxels held by someone
// else or by nobody are untouched, so it is safe with supersets and repeats.
func (t *Table) Release(owner Owner, voxels []voxel.Pos) int {
	if len(voxels) == 0 {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	mine := t.held[owner]
	if len(mine) == 0 {
		return 0
	}
	n := 0
	for _, p := range voxels {
		if cur, ok := t.owners[p]; !ok || cur != owner {
			continue
		}
		delete(t.owners, p)
		delete(mine, p)
		n++
	}
	if len(mine) == 0 {
		delete(t.held, owner)
	}
	return n
}

// ReleaseAll drops everything owner holds and returns the released voxels in
// position order.
func (t *Table) ReleaseAll(owner Owner) []voxel.Pos {
	t.mu.Lock()
	defer t.mu.Unlock()

	mine := t.held[owner]
	if len(mine) == 0 {
		return nil
	}
	out := mine.Sorted()
	for _, p := range out {
		delete(t.owners, p)
	}
	delete(t.held, owner)
	return out
}

func (t *Table) Owner(p voxel.Pos) (Owner, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	o, ok := t.owners[p]
	return o, ok
}

// Owned returns how many voxels owner holds.
func (t *Table) Owned(owner Owner) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.held[owner])
}

// Len is the number of claimed voxels in the table.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.owners)
}

// Owners lists every owner with at least one voxel, in position order.
func (t *Table) Owners() []Owner {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Owner, 0, len(t.held))
	for o := range t.held {
		out = append(out, o)
	}
	voxel.SortPositions(out)
	return out
}

// Key names one table. Kinds never contest each other, so a voxel can be
// held once per kind.
type Key struct {
	Domain voxel.DomainID
	Kind   string
}

// Registry shards claim tables by domain and kind. Tables are created lazily
// and never removed; concurrent use across domains never contends on a table
// lock.
type Registry struct {
	mu     sync.RWMutex
	tables map[Key]*Table
}

func NewRegistry() *Registry {
	return &Registry{tables: map[Key]*Table{}}
}

func (r *Registry) Table(domain voxel.DomainID, kind string) *Table {
	k := Key{Domain: domain, Kind: kind}
	r.mu.RLock()
	t := r.tables[k]
	r.mu.RUnlock()
	if t != nil {
		return t
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if t = r.tables[k]; t == nil {
		t = NewTable(domain, kind)
		r.tables[k] = t
	}
	return t
}

// Tables lists the tables of domain in kind order.
func (r *Registry) Tables(domain voxel.DomainID) []*Table {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Table
	for k, t := range r.tables {
		if k.Domain == domain {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

func (r *Registry) Domains() []voxel.DomainID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := map[voxel.DomainID]struct{}{}
	out := make([]voxel.DomainID, 0, len(r.tables))
	for k := range r.tables {
		if _, ok := seen[k.Domain]; ok {
			continue
		}
		seen[k.Domain] = struct{}{}
		out = append(out, k.Domain)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
