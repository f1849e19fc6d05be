package pool

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimerPool(t *testing.T) {
	t.Run("Get and Put", func(t *testing.T) {
		timer1 := GetTimer(time.Second)
		assert.NotNil(t, timer1)
		PutTimer(timer1)

		timer2 := GetTimer(20 * time.Millisecond)
		assert.NotNil(t, timer2)

		select {
		case <-timer2.C:
		case <-time.After(time.Second):
			t.Fatal("reused timer did not fire")
		}
		PutTimer(timer2)
	})

	t.Run("Put Active Timer", func(t *testing.T) {
		timer1 := GetTimer(30 * time.Millisecond)
		time.Sleep(10 * time.Millisecond)
		PutTimer(timer1)

		begin := time.Now()
		timer2 := GetTimer(150 * time.Millisecond)

		select {
		case fired := <-timer2.C:
			assert.GreaterOrEqual(t, fired.Sub(begin), 120*time.Millisecond,
				"timer fired early, stale expiry leaked through the pool")
		case <-time.After(500 * time.Millisecond):
			t.Fatal("timer2 should have fired")
		}
		PutTimer(timer2)
	})

	t.Run("Put Nil", func(t *testing.T) {
		assert.NotPanics(t, func() { PutTimer(nil) })
	})

	t.Run("Concurrency", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				timer := GetTimer(5 * time.Millisecond)
				defer PutTimer(timer)
				<-timer.C
			}()
		}
		wg.Wait()
	})
}
