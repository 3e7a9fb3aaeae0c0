package ordernum

import (
	"regexp"
	"sync"
	"testing"
)

func TestGenerateFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^ORD-\d{14}-[0-9A-F]{8}$`)

	for i := 0; i < 100; i++ {
		number := Generate()
		if !pattern.MatchString(number) {
			t.Fatalf("unexpected order number format: %s", number)
		}
	}
}

func TestGenerateConcurrentUniqueness(t *testing.T) {
	const (
		workers = 100
		perWork = 100
	)

	results := make(chan string, workers*perWork)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWork; j++ {
				results <- Generate()
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]struct{}, workers*perWork)
	for number := range results {
		if _, ok := seen[number]; ok {
			t.Fatalf("duplicate order number generated: %s", number)
		}
		seen[number] = struct{}{}
	}

	if len(seen) != workers*perWork {
		t.Fatalf("expected %d unique numbers, got %d", workers*perWork, len(seen))
	}
}
