package mpt

import "testing"

func TestEmptyTrieRootIsZeroHash(t *testing.T) {
	tr := NewTrie(nil)
	if !tr.RootHash().IsZero() {
		t.Fatalf("expected zero hash for empty trie, got %s", tr.RootHash())
	}
}

func TestInsertThenDeleteRestoresEmptyRoot(t *testing.T) {
	tr := NewTrie(nil)
	emptyRoot := tr.RootHash()

	if err := tr.Put([]byte("alpha"), []byte("1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if tr.RootHash() == emptyRoot {
		t.Fatal("expected root hash to change after insert")
	}

	deleted, err := tr.Delete([]byte("alpha"))
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !deleted {
		t.Fatal("expected key to be reported deleted")
	}
	if tr.RootHash() != emptyRoot {
		t.Fatalf("root hash after delete = %s, want original empty root %s", tr.RootHash(), emptyRoot)
	}
}

func TestGetAfterPut(t *testing.T) {
	tr := NewTrie(nil)
	if err := tr.Put([]byte("k1"), []byte("v1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := tr.Put([]byte("k2"), []byte("v2")); err != nil {
		t.Fatalf("put: %v", err)
	}
	v, ok, err := tr.Get([]byte("k1"))
	if err != nil || !ok || string(v) != "v1" {
		t.Fatalf("get k1 = %q, %v, %v", v, ok, err)
	}
	v, ok, err = tr.Get([]byte("k2"))
	if err != nil || !ok || string(v) != "v2" {
		t.Fatalf("get k2 = %q, %v, %v", v, ok, err)
	}
	_, ok, err = tr.Get([]byte("missing"))
	if err != nil || ok {
		t.Fatalf("expected missing key to be absent, got ok=%v err=%v", ok, err)
	}
}

func TestOverwriteUpdatesValueNotStructure(t *testing.T) {
	tr := NewTrie(nil)
	if err := tr.Put([]byte("key"), []byte("first")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := tr.Put([]byte("key"), []byte("second")); err != nil {
		t.Fatalf("put: %v", err)
	}
	v, ok, err := tr.Get([]byte("key"))
	if err != nil || !ok || string(v) != "second" {
		t.Fatalf("get = %q, %v, %v", v, ok, err)
	}
}

func TestInsertManyDeleteAllRestoresEmptyRoot(t *testing.T) {
	tr := NewTrie(nil)
	emptyRoot := tr.RootHash()
	keys := [][]byte{[]byte("a"), []byte("ab"), []byte("abc"), []byte("b"), []byte("bb")}
	for i, k := range keys {
		if err := tr.Put(k, []byte{byte(i)}); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}
	for _, k := range keys {
		deleted, err := tr.Delete(k)
		if err != nil || !deleted {
			t.Fatalf("delete %s: deleted=%v err=%v", k, deleted, err)
		}
	}
	if tr.RootHash() != emptyRoot {
		t.Fatalf("root after deleting all keys = %s, want %s", tr.RootHash(), emptyRoot)
	}
}

func TestFlushAndRestoreNodeStore(t *testing.T) {
	store := NewNodeStore()
	tr := NewTrie(store)
	if err := tr.Put([]byte("x"), []byte("y")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := tr.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	root := tr.RootHash()
	if store.RefCount(root) != 1 {
		t.Fatalf("root refcount = %d, want 1", store.RefCount(root))
	}

	enc, ok := store.Get(root)
	if !ok {
		t.Fatal("expected root encoding to be present after flush")
	}
	if err := store.Restore(root, enc); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if store.RefCount(root) != 2 {
		t.Fatalf("root refcount after restore = %d, want 2", store.RefCount(root))
	}

	if err := store.Restore(root, []byte("not the real encoding")); err != ErrRestoreFailed {
		t.Fatalf("expected ErrRestoreFailed for mismatched encoding, got %v", err)
	}
}
