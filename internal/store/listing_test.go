package store

import (
	"testing"

	"github.com/holiman/uint256"

	"github.com/efreitasn/nftmarket/internal/domain"
)

func TestListingStore_PutGet(t *testing.T) {
	s := NewListingStore()
	id := domain.U8(1)

	if _, ok := s.Get(id); ok {
		t.Fatal("expected token to be unlisted")
	}

	s.Put(id, uint256.NewInt(100))
	price, ok := s.Get(id)
	if !ok || price.Uint64() != 100 {
		t.Fatalf("Get = (%v, %v), want (100, true)", price, ok)
	}

	// Overwrite.
	s.Put(id, uint256.NewInt(50))
	price, _ = s.Get(id)
	if price.Uint64() != 50 {
		t.Fatalf("expected overwritten price 50, got %s", price.Dec())
	}
}

func TestListingStore_CopiesPrices(t *testing.T) {
	s := NewListingStore()
	p := uint256.NewInt(100)
	s.Put(domain.U8(1), p)

	p.SetUint64(1)
	got, _ := s.Get(domain.U8(1))
	if got.Uint64() != 100 {
		t.Fatal("Put should copy the price")
	}

	got.SetUint64(2)
	again, _ := s.Get(domain.U8(1))
	if again.Uint64() != 100 {
		t.Fatal("Get should return a copy of the price")
	}
}

func TestListingStore_Delete(t *testing.T) {
	s := NewListingStore()
	s.Put(domain.U8(1), uint256.NewInt(0))

	if !s.Has(domain.U8(1)) {
		t.Fatal("zero-priced listing should still be listed")
	}
	if !s.Delete(domain.U8(1)) {
		t.Fatal("expected Delete to report an existing listing")
	}
	if s.Delete(domain.U8(1)) {
		t.Fatal("second Delete should report nothing removed")
	}
	if s.Has(domain.U8(1)) || len(s.All()) != 0 {
		t.Fatal("listing should be gone")
	}
}

func TestListingStore_All_Ordered(t *testing.T) {
	s := NewListingStore()
	s.Put(domain.U8(10), uint256.NewInt(1))
	s.Put(domain.U8(2), uint256.NewInt(2))
	s.Put(domain.BytesID([]byte{0xff}), uint256.NewInt(3))
	s.Put(domain.U64(1), uint256.NewInt(4))

	all := s.All()
	want := []string{"u8:2", "u8:10", "u64:1", "bytes:0xff"}
	if len(all) != len(want) {
		t.Fatalf("expected %d listings, got %d", len(want), len(all))
	}
	for i, l := range all {
		if l.TokenID.String() != want[i] {
			t.Errorf("listing %d = %s, want %s", i, l.TokenID, want[i])
		}
	}
}
