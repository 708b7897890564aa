package bot

import (
	"context"
	"runtime"
	"time"
)

const (
	memWarnThresholdBytes  = 600 * 1024 * 1024
	memCritThresholdBytes  = 1200 * 1024 * 1024
	memCheckInterval       = 30 * time.Second
	goroutineWarnThreshold = 500
	goroutineCritThreshold = 1000
)

// runMemoryWatcher samples heap and goroutine counts for the long-running
// process. Crossing a critical threshold cancels in-flight jobs so a leaking
// transcode cannot take the whole bot down.
func (b *Bot) runMemoryWatcher(ctx context.Context) {
	ticker := time.NewTicker(memCheckInterval)
	defer ticker.Stop()

	var lastWarnAt time.Time

	b.log.Infof("memwatch: started (warn=%dMB, crit=%dMB, goroutines warn=%d crit=%d)",
		memWarnThresholdBytes/(1024*1024),
		memCritThresholdBytes/(1024*1024),
		goroutineWarnThreshold,
		goroutineCritThreshold,
	)

	for {
		select {
		case <-ctx.Done():
			b.log.Infof("memwatch: stopped")
			return
		case <-ticker.C:
			b.checkMemory(&lastWarnAt)
		}
	}
}

func (b *Bot) checkMemory(lastWarnAt *time.Time) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	heapMB := ms.HeapAlloc / (1024 * 1024)
	sysMB := ms.Sys / (1024 * 1024)
	numGoroutines := runtime.NumGoroutine()

	if numGoroutines >= goroutineCritThreshold {
		b.log.Errorf("memwatch: CRITICAL goroutine leak, goroutines=%d heap=%dMB sys=%dMB, canceling jobs",
			numGoroutines, heapMB, sysMB)
		b.emergencyStop()
		return
	}

	if ms.HeapAlloc >= memCritThresholdBytes {
		b.log.Errorf("memwatch: CRITICAL heap usage, heap=%dMB sys=%dMB goroutines=%d, canceling jobs",
			heapMB, sysMB, numGoroutines)
		b.emergencyStop()
		return
	}

	warnNeeded := ms.HeapAlloc > memWarnThresholdBytes || numGoroutines >= goroutineWarnThreshold
	if warnNeeded && time.Since(*lastWarnAt) > 10*time.Minute {
		b.log.Warnf("memwatch: high resource usage, heap=%dMB sys=%dMB goroutines=%d",
			heapMB, sysMB, numGoroutines)
		runtime.GC()
		*lastWarnAt = time.Now()
	}
}

func (b *Bot) emergencyStop() {
	if b.cancel != nil {
		b.cancel()
	}
}
