package suggest

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"
	"testing"
	"time"
)

// stubGenerator returns canned suggestions and counts its calls.
type stubGenerator struct {
	calls       atomic.Int64
	suggestions []string
	err         error
}

func (g *stubGenerator) Generate(_ context.Context, _ string) ([]string, error) {
	g.calls.Add(1)
	if g.err != nil {
		return nil, g.err
	}
	return g.suggestions, nil
}

// TestServiceSuggest tests the budget, cache, and fallback behavior.
func TestServiceSuggest(t *testing.T) {
	t.Parallel()

	t.Run("generator answer is returned and cached", func(t *testing.T) {
		t.Parallel()

		gen := &stubGenerator{suggestions: []string{"/archive/", "/press/"}}
		svc := NewService(gen, WithMinSpacing(0))

		got, spent := svc.Suggest(context.Background(), "directories for example.com")
		if !spent {
			t.Error("first answer should spend a generator call")
		}
		if !slices.Equal(got, []string{"/archive/", "/press/"}) {
			t.Errorf("unexpected suggestions %v", got)
		}

		got, spent = svc.Suggest(context.Background(), "directories for example.com")
		if spent {
			t.Error("cached answer must not spend a generator call")
		}
		if !slices.Equal(got, []string{"/archive/", "/press/"}) {
			t.Errorf("unexpected cached suggestions %v", got)
		}
		if gen.calls.Load() != 1 {
			t.Errorf("expected 1 generator call, got %d", gen.calls.Load())
		}
	})

	t.Run("budget of 2 answers 2 of 5 distinct prompts", func(t *testing.T) {
		t.Parallel()

		gen := &stubGenerator{suggestions: []string{"/generated/"}}
		svc := NewService(gen, WithDailyBudget(2), WithMinSpacing(0))

		prompts := []string{"one", "two", "three", "four", "five"}
		generated := 0
		for _, p := range prompts {
			got, spent := svc.Suggest(context.Background(), p)
			if spent {
				generated++
				if !slices.Equal(got, []string{"/generated/"}) {
					t.Errorf("unexpected generated answer %v", got)
				}
			} else if !slices.Contains(got, "/about/") {
				t.Errorf("expected fallback answer, got %v", got)
			}
		}
		if generated != 2 {
			t.Errorf("expected exactly 2 generated answers, got %d", generated)
		}
		if gen.calls.Load() != 2 {
			t.Errorf("expected 2 generator calls, got %d", gen.calls.Load())
		}
		if svc.CallsUsed() != 2 {
			t.Errorf("expected 2 calls recorded, got %d", svc.CallsUsed())
		}
	})

	t.Run("generator failure falls back without error", func(t *testing.T) {
		t.Parallel()

		gen := &stubGenerator{err: errors.New("api down")}
		svc := NewService(gen, WithMinSpacing(0))

		got, spent := svc.Suggest(context.Background(), "anything")
		if spent {
			t.Error("failed call should not count as a spent suggestion")
		}
		if len(got) == 0 || !slices.Contains(got, "/about/") {
			t.Errorf("expected static fallback, got %v", got)
		}
	})

	t.Run("nil generator always falls back", func(t *testing.T) {
		t.Parallel()

		svc := NewService(nil)
		got, spent := svc.Suggest(context.Background(), "anything")
		if spent {
			t.Error("nil generator must not spend budget")
		}
		if !slices.Contains(got, "/admin/") {
			t.Errorf("expected static fallback, got %v", got)
		}
	})

	t.Run("budget resets on a new calendar day", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
		gen := &stubGenerator{suggestions: []string{"/generated/"}}
		svc := NewService(gen,
			WithDailyBudget(1),
			WithMinSpacing(0),
			withClock(func() time.Time { return now }),
		)

		if _, spent := svc.Suggest(context.Background(), "first"); !spent {
			t.Fatal("first call should be generated")
		}
		if _, spent := svc.Suggest(context.Background(), "second"); spent {
			t.Fatal("budget should be exhausted within the day")
		}

		now = now.Add(2 * time.Minute) // past midnight
		if _, spent := svc.Suggest(context.Background(), "third"); !spent {
			t.Error("new day should reset the budget")
		}
	})

	t.Run("empty generator answer falls back", func(t *testing.T) {
		t.Parallel()

		gen := &stubGenerator{suggestions: nil}
		svc := NewService(gen, WithMinSpacing(0))

		got, spent := svc.Suggest(context.Background(), "anything")
		if spent {
			t.Error("empty answer should not count")
		}
		if !slices.Contains(got, "/about/") {
			t.Errorf("expected fallback, got %v", got)
		}
	})
}

// TestParseSuggestionLines tests model output parsing.
func TestParseSuggestionLines(t *testing.T) {
	t.Parallel()

	text := "```\n- /admin/\n2. /files/\n\n* /reports/\n```"
	got := parseSuggestionLines(text)
	want := []string{"/admin/", "/files/", "/reports/"}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
