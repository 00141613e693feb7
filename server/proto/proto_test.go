package proto

import "testing"

type testPrototype struct{ id ID }

func (p testPrototype) InternalID() ID { return p.id }

func TestRegistryLookupRoundTrip(t *testing.T) {
	r := NewRegistry()
	r.Register(testPrototype{id: 7})

	p, ok := r.Lookup(7)
	if !ok {
		t.Fatal("expected to find the registered prototype")
	}
	if p.(testPrototype).id != 7 {
		t.Fatalf("unexpected prototype returned: %+v", p)
	}

	if _, ok := r.Lookup(8); ok {
		t.Fatal("expected no prototype registered under id 8")
	}
}

func TestRegistryPanicsOnDuplicateID(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected Register to panic on a duplicate id")
		}
	}()
	r := NewRegistry()
	r.Register(testPrototype{id: 1})
	r.Register(testPrototype{id: 1})
}

func TestDataManagerPutLookupForget(t *testing.T) {
	m := NewDataManager()
	id := m.Put("some unique data")

	d, ok := m.Lookup(id)
	if !ok || d.(string) != "some unique data" {
		t.Fatalf("expected to look up the stored value, got %v ok=%v", d, ok)
	}

	m.Forget(id)
	if _, ok := m.Lookup(id); ok {
		t.Fatal("expected the entry to be gone after Forget")
	}
}

func TestDataManagerAssignsDistinctIDs(t *testing.T) {
	m := NewDataManager()
	a := m.Put(1)
	b := m.Put(2)
	if a == b {
		t.Fatal("expected distinct ids from successive Put calls")
	}
}
