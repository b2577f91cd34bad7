package texcache

import "testing"

func qreq(id ContentID, tier Tier, priority float64, seq uint64) *loadRequest {
	return &loadRequest{
		key:      CacheKey{ID: id, Tier: tier},
		priority: priority,
		seq:      seq,
	}
}

func TestQueuePriorityOrder(t *testing.T) {
	var q loadQueue
	q.push(qreq("mid", Tier256, 0.5, 1))
	q.push(qreq("urgent", Tier256, 0.1, 2))
	q.push(qreq("lazy", Tier256, 0.9, 3))

	want := []ContentID{"urgent", "mid", "lazy"}
	for _, id := range want {
		r := q.pop()
		if r == nil || r.key.ID != id {
			t.Fatalf("pop = %v, want %s", r, id)
		}
	}
	if q.pop() != nil {
		t.Error("pop on empty queue != nil")
	}
}

func TestQueueStableForEqualPriority(t *testing.T) {
	var q loadQueue
	q.push(qreq("first", Tier256, 0.5, 1))
	q.push(qreq("second", Tier256, 0.5, 2))
	q.push(qreq("third", Tier256, 0.5, 3))

	for _, id := range []ContentID{"first", "second", "third"} {
		if r := q.pop(); r.key.ID != id {
			t.Fatalf("equal-priority order broken: got %s, want %s", r.key.ID, id)
		}
	}
}

func TestQueuePushFront(t *testing.T) {
	var q loadQueue
	q.push(qreq("a", Tier256, 0.1, 1))
	deferredReq := qreq("deferred", Tier256, 0.9, 2)
	q.pushFront(deferredReq)

	if r := q.pop(); r != deferredReq {
		t.Errorf("pop = %v, want the front-requeued request", r.key)
	}
	if r := q.pop(); r.key.ID != "a" {
		t.Errorf("pop = %s, want a", r.key.ID)
	}
}

func TestQueueRemoveID(t *testing.T) {
	var q loadQueue
	q.push(qreq("a", Tier128, 0.2, 1))
	q.push(qreq("b", Tier256, 0.3, 2))
	q.push(qreq("a", Tier512, 0.4, 3))

	q.removeID("a")
	if q.len() != 1 {
		t.Fatalf("len = %d after removeID, want 1", q.len())
	}
	if r := q.pop(); r.key.ID != "b" {
		t.Errorf("survivor = %s, want b", r.key.ID)
	}
}

func TestQueueClear(t *testing.T) {
	var q loadQueue
	q.push(qreq("a", Tier128, 0.2, 1))
	q.push(qreq("b", Tier256, 0.3, 2))
	q.clear()
	if q.len() != 0 || q.pop() != nil {
		t.Error("queue not empty after clear")
	}
}
