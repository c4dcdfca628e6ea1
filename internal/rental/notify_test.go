package rental

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotifiersFanOut(t *testing.T) {
	var got []string
	a := NotifierFunc(func(_ context.Context, e Event) { got = append(got, "a:"+e.Type) })
	b := NotifierFunc(func(_ context.Context, e Event) { got = append(got, "b:"+e.Type) })

	Notifiers{a, b}.Notify(context.Background(), Event{Type: EventRentalCreated})
	assert.Equal(t, []string{"a:rental.created", "b:rental.created"}, got)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	LogNotifier{Logger: logger}.Notify(context.Background(), Event{
		Type: EventRentalOverdue, RentalID: 4, EquipmentID: 2, Quantity: 1,
	})

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "event=rental.overdue")
	assert.Contains(t, out, "rental=4")
}

func TestKeyedMutexReleasesEntries(t *testing.T) {
	k := newKeyedMutex()
	var wg sync.WaitGroup
	counter := 0
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock(7)
			counter++
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Empty(t, k.locks)
}
