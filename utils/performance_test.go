package utils

import (
	"context"
	"testing"

	"github.com/coder/quartz"

	"ccasino/models"
)

// BenchmarkHandValue measures hand evaluation with aces to demote
func BenchmarkHandValue(b *testing.B) {
	hand := NewHand(MustCards("A", "A", "9", "K")...)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		hand.Value()
	}
}

// BenchmarkShoe measures building and dealing a full shoe
func BenchmarkShoe(b *testing.B) {
	rng := NewRand(1)
	b.Run("NewShoe", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			NewShoe(MaxShoeDecks, rng)
		}
	})

	b.Run("Draw", func(b *testing.B) {
		shoe := NewShoe(MaxShoeDecks, rng)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			shoe.Draw()
		}
	})
}

// BenchmarkLedgerOperations measures the in-memory ledger behind the cache
func BenchmarkLedgerOperations(b *testing.B) {
	ctx := context.Background()
	clock := quartz.NewReal()
	mem := NewMemoryLedger(clock)
	cache := NewCachedLedger(mem, DefaultCacheTTL, clock, testLogger())
	defer cache.Close()

	b.Run("MemoryUpdate", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = mem.UpdatePlayer(ctx, int64(i%1000), models.PlayerUpdate{CreditsIncrement: 1})
		}
	})

	b.Run("CachedGet", func(b *testing.B) {
		for i := 0; i < 1000; i++ {
			_, _ = cache.GetPlayer(ctx, int64(i))
		}
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _ = cache.GetPlayer(ctx, int64(i%1000))
		}
	})
}

// BenchmarkFormatting tests number formatting performance
func BenchmarkFormatting(b *testing.B) {
	testNumbers := []int64{123, 1234, 12345, 123456, 1234567, 12345678}

	b.Run("FormatNumber", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			FormatNumber(testNumbers[i%len(testNumbers)])
		}
	})
}
