package expense

import (
	"context"
	"errors"
	"testing"

	"playground/pkg/models"
)

type staticSource struct {
	meta  models.TransferMetadata
	err   error
	calls int
}

func (s *staticSource) Extract(context.Context, []byte, string) (models.TransferMetadata, error) {
	s.calls++
	return s.meta, s.err
}

func TestChainFillsFromLaterSources(t *testing.T) {
	first := &staticSource{meta: models.TransferMetadata{Amount: "12200", Seller: "커피빈코리아"}}
	second := &staticSource{meta: models.TransferMetadata{Amount: "999", Date: "20250807", Item: "Latte"}}

	meta, err := NewChain(first, nil, second).Extract(context.Background(), pngHeader, "image/png")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := models.TransferMetadata{Amount: "12200", Date: "20250807", Seller: "커피빈코리아", Item: "Latte"}
	if meta != want {
		t.Errorf("meta = %+v, want %+v", meta, want)
	}
}

func TestChainStopsWhenComplete(t *testing.T) {
	first := &staticSource{meta: models.TransferMetadata{Amount: "1", Date: "20250101", Seller: "s", Item: "i"}}
	second := &staticSource{}

	if _, err := NewChain(first, second).Extract(context.Background(), nil, ""); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if second.calls != 0 {
		t.Errorf("second source called %d times", second.calls)
	}
}

func TestChainSkipsFailingSource(t *testing.T) {
	failing := &staticSource{err: NewExtractionError("Extract", ErrQuotaExceeded, "")}
	ok := &staticSource{meta: models.TransferMetadata{Seller: "GS25"}}

	meta, err := NewChain(failing, ok).Extract(context.Background(), nil, "")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if meta.Seller != "GS25" {
		t.Errorf("meta = %+v", meta)
	}
}

func TestChainAllFail(t *testing.T) {
	chain := NewChain(&staticSource{err: errors.New("first down")}, &staticSource{err: errors.New("second down")})

	_, err := chain.Extract(context.Background(), nil, "")
	if !errors.Is(err, ErrNoEntities) {
		t.Fatalf("err = %v, want ErrNoEntities", err)
	}
	if chain.Len() != 2 {
		t.Errorf("Len = %d, want 2", chain.Len())
	}
}

func TestEmptyChain(t *testing.T) {
	chain := NewChain(nil)
	if chain.Len() != 0 {
		t.Errorf("Len = %d, want 0", chain.Len())
	}
	if _, err := chain.Extract(context.Background(), nil, ""); !errors.Is(err, ErrNoEntities) {
		t.Errorf("err = %v, want ErrNoEntities", err)
	}
}
