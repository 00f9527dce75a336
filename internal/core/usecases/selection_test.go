package usecases_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/samirrijal/sgrent/internal/core/domain"
	"github.com/samirrijal/sgrent/internal/core/usecases"
)

func TestSelection_StaleResultDropped(t *testing.T) {
	sel := usecases.NewSelection()

	ctx1, gen1 := sel.Begin(context.Background())
	_, gen2 := sel.Begin(context.Background())

	if ctx1.Err() == nil {
		t.Error("expected first lookup to be canceled by the second selection")
	}
	if sel.Commit(gen1, domain.Address{Text: "OLD BLOCK 1", Found: true}, nil) {
		t.Error("stale result must not be committed")
	}
	if !sel.Commit(gen2, domain.Address{Text: "NEW BLOCK 2", Found: true}, nil) {
		t.Error("current result must be committed")
	}

	addr, gen := sel.Current()
	if addr.Text != "NEW BLOCK 2" || gen != gen2 {
		t.Errorf("unexpected current %+v (gen %d)", addr, gen)
	}
}

func TestSelection_LateArrivalAfterNewer(t *testing.T) {
	sel := usecases.NewSelection()

	_, gen1 := sel.Begin(context.Background())
	_, gen2 := sel.Begin(context.Background())

	// Newer result lands first, older one arrives late.
	sel.Commit(gen2, domain.Address{Text: "NEW BLOCK 2", Found: true}, nil)
	sel.Commit(gen1, domain.Address{Text: "OLD BLOCK 1", Found: true}, nil)

	if addr, _ := sel.Current(); addr.Text != "NEW BLOCK 2" {
		t.Errorf("late stale result overwrote the newer one: %+v", addr)
	}
}

func TestSelection_DeliverHoldsOffNewerBegin(t *testing.T) {
	sel := usecases.NewSelection()
	_, gen1 := sel.Begin(context.Background())

	entered := make(chan struct{})
	release := make(chan struct{})
	committed := make(chan bool)
	go func() {
		committed <- sel.Commit(gen1, domain.Address{Text: "OLD BLOCK 1", Found: true}, func() {
			close(entered)
			<-release
		})
	}()
	<-entered

	began := make(chan uint64)
	go func() {
		_, gen := sel.Begin(context.Background())
		began <- gen
	}()

	select {
	case <-began:
		t.Fatal("Begin must wait for the delivery in progress")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)

	if !<-committed {
		t.Error("current result must be committed")
	}
	if gen2 := <-began; gen2 != gen1+1 {
		t.Errorf("expected generation %d, got %d", gen1+1, gen2)
	}
	if sel.Commit(gen1, domain.Address{Text: "OLD BLOCK 1", Found: true}, func() {
		t.Error("superseded result must not be delivered")
	}) {
		t.Error("superseded result must not be committed")
	}
}

func TestSelection_ConcurrentPicks(t *testing.T) {
	sel := usecases.NewSelection()
	defer sel.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		ctx, gen := sel.Begin(context.Background())
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case <-ctx.Done():
			case <-time.After(time.Millisecond):
			}
			sel.Commit(gen, domain.Address{Text: "BLOCK", Found: true}, nil)
		}()
	}
	wg.Wait()

	if _, gen := sel.Current(); gen != 0 && gen != sel.Generation() {
		t.Errorf("committed generation %d is not the latest %d", gen, sel.Generation())
	}
	if sel.Generation() != 50 {
		t.Errorf("expected 50 generations, got %d", sel.Generation())
	}
}

func TestSelection_Close(t *testing.T) {
	sel := usecases.NewSelection()
	ctx, _ := sel.Begin(context.Background())
	sel.Close()
	if ctx.Err() == nil {
		t.Error("expected Close to cancel the in-flight lookup")
	}
}
