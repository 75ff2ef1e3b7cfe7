package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestNewExportLimiter_Defaults(t *testing.T) {
	tests := []struct {
		name    string
		max     int
		wantMax int
	}{
		{"explicit", 3, 3},
		{"zero uses default", 0, DefaultMaxConcurrentExports},
		{"negative uses default", -2, DefaultMaxConcurrentExports},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewExportLimiter(tt.max, 0)
			if got := l.Status().MaxConcurrent; got != tt.wantMax {
				t.Errorf("MaxConcurrent = %d, want %d", got, tt.wantMax)
			}
			if l.maxWait != DefaultMaxWaitTime {
				t.Errorf("maxWait = %v, want %v", l.maxWait, DefaultMaxWaitTime)
			}
		})
	}
}

func TestExportLimiter_TracksFormats(t *testing.T) {
	l := NewExportLimiter(3, time.Second)
	ctx := context.Background()

	releaseCSV, err := l.Acquire(ctx, FormatCSV)
	if err != nil {
		t.Fatalf("Acquire(csv) error = %v", err)
	}
	releasePDF, err := l.Acquire(ctx, FormatPDF)
	if err != nil {
		t.Fatalf("Acquire(pdf) error = %v", err)
	}
	releaseCSV2, ok := l.TryAcquire(FormatCSV)
	if !ok {
		t.Fatal("TryAcquire(csv) = false")
	}

	s := l.Status()
	if s.Active != 3 || s.Available != 0 {
		t.Errorf("Active = %d, Available = %d; want 3, 0", s.Active, s.Available)
	}
	if s.ByFormat["csv"] != 2 || s.ByFormat["pdf"] != 1 {
		t.Errorf("ByFormat = %v, want csv:2 pdf:1", s.ByFormat)
	}

	releaseCSV()
	releasePDF()
	s = l.Status()
	if s.Active != 1 || s.ByFormat["csv"] != 1 {
		t.Errorf("after release: %+v", s)
	}
	if _, ok := s.ByFormat["pdf"]; ok {
		t.Errorf("ByFormat still lists pdf: %v", s.ByFormat)
	}

	releaseCSV2()
	if s := l.Status(); s.Active != 0 || s.ByFormat != nil {
		t.Errorf("idle status = %+v", s)
	}
}

func TestExportLimiter_ReleaseTwice(t *testing.T) {
	l := NewExportLimiter(2, time.Second)

	release, err := l.Acquire(context.Background(), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	release()
	release()

	if s := l.Status(); s.Active != 0 || s.Available != 2 {
		t.Errorf("status = %+v, want no active exports", s)
	}
	// A double release must not have handed out a phantom slot.
	r1, ok1 := l.TryAcquire(FormatCSV)
	r2, ok2 := l.TryAcquire(FormatCSV)
	_, ok3 := l.TryAcquire(FormatCSV)
	if !ok1 || !ok2 || ok3 {
		t.Errorf("TryAcquire = %v, %v, %v; want true, true, false", ok1, ok2, ok3)
	}
	r1()
	r2()
}

func TestExportLimiter_BusyRejects(t *testing.T) {
	l := NewExportLimiter(1, 20*time.Millisecond)

	release, ok := l.TryAcquire(FormatExcel)
	if !ok {
		t.Fatal("TryAcquire() = false")
	}
	defer release()

	if _, err := l.Acquire(context.Background(), FormatCSV); !errors.Is(err, ErrTooManyExports) {
		t.Fatalf("Acquire() error = %v, want ErrTooManyExports", err)
	}
	if got := MapError(ErrTooManyExports).Code; got != "EXP003" {
		t.Errorf("MapError code = %q, want EXP003", got)
	}

	s := l.Status()
	if s.Rejected != 1 || s.Queued != 0 {
		t.Errorf("Rejected = %d, Queued = %d; want 1, 0", s.Rejected, s.Queued)
	}
}

func TestExportLimiter_CallerCancelNotRejected(t *testing.T) {
	l := NewExportLimiter(1, time.Minute)
	release, _ := l.TryAcquire(FormatCSV)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := l.Acquire(ctx, FormatCSV); !errors.Is(err, context.Canceled) {
		t.Errorf("Acquire() error = %v, want context.Canceled", err)
	}
	if got := l.Status().Rejected; got != 0 {
		t.Errorf("Rejected = %d, want 0 for a cancelled caller", got)
	}
}

func TestExportLimiter_QueuedExportGetsFreedSlot(t *testing.T) {
	l := NewExportLimiter(1, time.Second)
	release, _ := l.TryAcquire(FormatPDF)

	got := make(chan error, 1)
	go func() {
		r, err := l.Acquire(context.Background(), FormatJSON)
		if err == nil {
			defer r()
		}
		got <- err
	}()

	waitFor(t, func() bool { return l.Status().Queued == 1 })
	release()

	select {
	case err := <-got:
		if err != nil {
			t.Errorf("queued Acquire() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("queued export never got a slot")
	}
}

func TestExportLimiter_Close(t *testing.T) {
	l := NewExportLimiter(2, time.Second)
	running, _ := l.TryAcquire(FormatCSV)

	l.Close()

	if _, err := l.Acquire(context.Background(), FormatCSV); !errors.Is(err, ErrExportsClosed) {
		t.Errorf("Acquire() after Close error = %v, want ErrExportsClosed", err)
	}
	if _, ok := l.TryAcquire(FormatCSV); ok {
		t.Error("TryAcquire() after Close = true")
	}
	if s := l.Status(); !s.Closed || s.Active != 1 {
		t.Errorf("status = %+v, want closed with the running export", s)
	}
	running()
}

func TestExportLimiter_CloseWakesQueued(t *testing.T) {
	l := NewExportLimiter(1, time.Second)
	release, _ := l.TryAcquire(FormatCSV)

	got := make(chan error, 1)
	go func() {
		_, err := l.Acquire(context.Background(), FormatJSON)
		got <- err
	}()

	waitFor(t, func() bool { return l.Status().Queued == 1 })
	l.Close()
	release()

	if err := <-got; !errors.Is(err, ErrExportsClosed) {
		t.Errorf("queued Acquire() error = %v, want ErrExportsClosed", err)
	}
	if s := l.Status(); s.Active != 0 || s.Available != 1 {
		t.Errorf("status = %+v, want the slot returned", s)
	}
}

func TestExportLimiter_WaitForDrain(t *testing.T) {
	t.Run("idle returns at once", func(t *testing.T) {
		l := NewExportLimiter(2, time.Second)
		if err := l.WaitForDrain(context.Background()); err != nil {
			t.Errorf("WaitForDrain() error = %v", err)
		}
	})

	t.Run("waits for running exports", func(t *testing.T) {
		l := NewExportLimiter(3, time.Second)

		var wg sync.WaitGroup
		for _, f := range []ExportFormat{FormatCSV, FormatJSON, FormatPDF} {
			release, ok := l.TryAcquire(f)
			if !ok {
				t.Fatalf("TryAcquire(%s) = false", f)
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				time.Sleep(20 * time.Millisecond)
				release()
			}()
		}

		if err := l.WaitForDrain(context.Background()); err != nil {
			t.Fatalf("WaitForDrain() error = %v", err)
		}
		if got := l.Status().Active; got != 0 {
			t.Errorf("Active after drain = %d, want 0", got)
		}
		wg.Wait()
	})

	t.Run("deadline", func(t *testing.T) {
		l := NewExportLimiter(1, time.Second)
		release, _ := l.TryAcquire(FormatCSV)
		defer release()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if err := l.WaitForDrain(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("WaitForDrain() error = %v, want DeadlineExceeded", err)
		}
	})
}

func TestExportLimiter_ConcurrentExports(t *testing.T) {
	const limit = 3
	l := NewExportLimiter(limit, time.Second)

	var (
		mu     sync.Mutex
		inUse  int
		peak   int
		wg     sync.WaitGroup
		failed int
	)
	formats := []ExportFormat{FormatCSV, FormatJSON, FormatExcel, FormatPDF}
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(f ExportFormat) {
			defer wg.Done()
			release, err := l.Acquire(context.Background(), f)
			if err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			defer release()

			mu.Lock()
			inUse++
			peak = max(peak, inUse)
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			inUse--
			mu.Unlock()
		}(formats[i%len(formats)])
	}
	wg.Wait()

	if failed != 0 {
		t.Errorf("%d exports failed to get a slot", failed)
	}
	if peak > limit {
		t.Errorf("peak concurrency = %d, want <= %d", peak, limit)
	}
	if s := l.Status(); s.Active != 0 || s.Queued != 0 {
		t.Errorf("final status = %+v", s)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met within 1s")
		}
		time.Sleep(time.Millisecond)
	}
}
