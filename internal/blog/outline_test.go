package blog_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alnah/go-vidblog/internal/apierr"
	"github.com/alnah/go-vidblog/internal/blog"
	"github.com/alnah/go-vidblog/internal/llm"
)

// ---------------------------------------------------------------------------
// TestSectionShape
// ---------------------------------------------------------------------------

func TestSectionShape(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		min, max int
		want     blog.Shape
	}{
		{"small", 90, 105, blog.Shape{Paragraphs: blog.Range{Min: 1, Max: 1}}},
		{"boundary 120", 110, 130, blog.Shape{Paragraphs: blog.Range{Min: 1, Max: 1}}},
		{"medium", 140, 160, blog.Shape{Paragraphs: blog.Range{Min: 1, Max: 2}, ListItems: blog.Range{Min: 0, Max: 3}}},
		{"large", 200, 230, blog.Shape{Paragraphs: blog.Range{Min: 2, Max: 3}, ListItems: blog.Range{Min: 3, Max: 4}, RequireList: true}},
		{"huge", 400, 440, blog.Shape{Paragraphs: blog.Range{Min: 3, Max: 4}, ListItems: blog.Range{Min: 5, Max: 7}, RequireList: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, blog.SectionShape(tt.min, tt.max))
		})
	}
}

// ---------------------------------------------------------------------------
// TestPreferredSectionCount
// ---------------------------------------------------------------------------

func TestPreferredSectionCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		target int
		want   int
	}{
		{100, 2},
		{260, 2},
		{350, 3},
		{520, 4},
		{650, 5},
		{5000, 5},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, blog.PreferredSectionCount(tt.target), "target %d", tt.target)
	}
}

// ---------------------------------------------------------------------------
// TestNormalizeOutline
// ---------------------------------------------------------------------------

func TestNormalizeOutline(t *testing.T) {
	t.Parallel()

	natural := func(n int) []string {
		titles := make([]string, n)
		for i := range titles {
			titles[i] = string(rune('A'+i)) + " topic"
		}
		return titles
	}

	t.Run("budget sums exactly to target", func(t *testing.T) {
		t.Parallel()
		for _, target := range []int{80, 100, 101, 257, 350, 999, 1234, 5000} {
			for n := 1; n <= 8; n++ {
				sections := blog.NormalizeOutline(natural(n), target)
				sum := 0
				for _, s := range sections {
					sum += s.TargetWords
				}
				assert.Equal(t, target, sum, "target %d natural %d", target, n)
			}
		}
	})

	t.Run("band contains target", func(t *testing.T) {
		t.Parallel()
		for _, target := range []int{80, 100, 350, 777, 5000} {
			for n := 1; n <= 8; n++ {
				for _, s := range blog.NormalizeOutline(natural(n), target) {
					assert.LessOrEqual(t, s.MinWords, s.TargetWords)
					assert.LessOrEqual(t, s.TargetWords, s.MaxWords)
				}
			}
		}
	})

	t.Run("350 words gives three sections for 2 or 8 natural", func(t *testing.T) {
		t.Parallel()
		for _, n := range []int{2, 8} {
			b := blog.PlanBudget(natural(n), 350)
			assert.Equal(t, 3, b.SectionCount)
			assert.Len(t, b.FinalSections, 3)
			assert.Equal(t, []int{117, 117, 116}, b.Targets)
		}
		assert.Equal(t, blog.FitSplit, blog.PlanBudget(natural(2), 350).Strategy)
		assert.Equal(t, blog.FitMerge, blog.PlanBudget(natural(8), 350).Strategy)
		assert.Equal(t, blog.FitNatural, blog.PlanBudget(natural(3), 350).Strategy)
	})

	t.Run("remainder goes to earliest sections", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, []int{26, 25, 25, 25}, blog.AllocateWords(101, 4))
	})
}

// ---------------------------------------------------------------------------
// TestSectionBand
// ---------------------------------------------------------------------------

func TestSectionBand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		target   int
		min, max int
	}{
		{117, 105, 123},
		{100, 90, 105},
		{40, 40, 48},
		{30, 30, 38},
	}

	for _, tt := range tests {
		lo, hi := blog.SectionBand(tt.target)
		assert.Equal(t, tt.min, lo, "min for %d", tt.target)
		assert.Equal(t, tt.max, hi, "max for %d", tt.target)
	}
}

// ---------------------------------------------------------------------------
// TestMergeSplitSections
// ---------------------------------------------------------------------------

func TestMergeSplitSections(t *testing.T) {
	t.Parallel()

	t.Run("merge to same count is identity", func(t *testing.T) {
		t.Parallel()
		in := []string{"One", "Two", "Three"}
		assert.Equal(t, in, blog.MergeSections(in, 3))
	})

	t.Run("merge picks smallest adjacent pair leftmost", func(t *testing.T) {
		t.Parallel()
		got := blog.MergeSections([]string{"Long heading", "A", "B", "C"}, 3)
		assert.Equal(t, []string{"Long heading", "A & B", "C"}, got)
	})

	t.Run("split longest first", func(t *testing.T) {
		t.Parallel()
		got := blog.SplitSections([]string{"Intro", "Deep dive"}, 3)
		assert.Equal(t, []string{"Intro", "Deep dive (Part 1)", "Deep dive (Part 2)"}, got)
	})

	t.Run("split empty gives overview", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, []string{"Overview (Part 1)", "Overview (Part 2)"}, blog.SplitSections(nil, 2))
	})

	t.Run("split then merge keeps length", func(t *testing.T) {
		t.Parallel()
		in := []string{"Alpha", "Beta", "Gamma"}
		for k := 3; k <= 8; k++ {
			assert.Len(t, blog.MergeSections(blog.SplitSections(in, k), len(in)), len(in))
		}
	})
}

// ---------------------------------------------------------------------------
// TestDetectSections
// ---------------------------------------------------------------------------

func TestDetectSections(t *testing.T) {
	t.Parallel()

	transcript := transcriptOf(20)

	tests := []struct {
		name string
		fake func() *llm.Fake
		want []string
	}{
		{
			name: "object response",
			fake: func() *llm.Fake {
				return llm.NewFake().QueueStructured(`{"sections": ["Caching", "Latency", "Monitoring"]}`)
			},
			want: []string{"Caching", "Latency", "Monitoring"},
		},
		{
			name: "bare array with markers",
			fake: func() *llm.Fake {
				return llm.NewFake().QueueStructured("```json\n[\"1. Caching\", \"## 2024 Plans\"]\n```")
			},
			want: []string{"Caching", "2024 Plans"},
		},
		{
			name: "too few falls back",
			fake: func() *llm.Fake { return llm.NewFake().QueueStructured(`{"sections": ["Only"]}`) },
			want: []string{"Introduction", "Key Takeaways"},
		},
		{
			name: "malformed falls back",
			fake: func() *llm.Fake { return llm.NewFake().QueueStructured(`not json`) },
			want: []string{"Introduction", "Key Takeaways"},
		},
		{
			name: "backend error falls back",
			fake: func() *llm.Fake {
				return llm.NewFake().OnStructured(func(int, llm.StructuredRequest) (string, error) {
					return "", apierr.ErrTimeout
				})
			},
			want: []string{"Introduction", "Key Takeaways"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := blog.DetectSections(context.Background(), tt.fake(), transcript, "system", zerolog.Nop())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("cancellation is returned", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := blog.DetectSections(ctx, llm.NewFake(), transcript, "system", zerolog.Nop())
		assert.ErrorIs(t, err, context.Canceled)
	})
}

// ---------------------------------------------------------------------------
// TestFallbackSections
// ---------------------------------------------------------------------------

func TestFallbackSections(t *testing.T) {
	t.Parallel()

	assert.Len(t, blog.FallbackSections(words(100)), 2)
	assert.Len(t, blog.FallbackSections(words(800)), 3)
	assert.Len(t, blog.FallbackSections(words(2000)), 4)
}
