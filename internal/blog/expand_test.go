package blog_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alnah/go-vidblog/internal/apierr"
	"github.com/alnah/go-vidblog/internal/blog"
	"github.com/alnah/go-vidblog/internal/llm"
	"github.com/alnah/go-vidblog/internal/textstat"
)

func outlineSection(heading string, target int) blog.OutlineSection {
	lo, hi := blog.SectionBand(target)
	return blog.OutlineSection{
		Heading:     heading,
		TargetWords: target,
		MinWords:    lo,
		MaxWords:    hi,
		KeyPoints:   []string{"caching", "latency"},
	}
}

func sectionWith(target int, content string) blog.Section {
	lo, hi := blog.SectionBand(target)
	s := blog.Section{Heading: "Test", TargetWords: target, MinWords: lo, MaxWords: hi}
	s.SetContent(content)
	return s
}

// ---------------------------------------------------------------------------
// TestCheckSection
// ---------------------------------------------------------------------------

func TestCheckSection(t *testing.T) {
	t.Parallel()

	quote := `"caching keeps hot data close to the reader"`

	tests := []struct {
		name    string
		target  int
		content string
		alpha   float64
		wantOK  bool
	}{
		{"within band", 100, words(95), 0.7, true},
		{"too short", 100, words(50), 0.7, false},
		{"too long", 100, words(140), 0.7, false},
		{"needs quote when extractive", 100, words(95), 0.2, false},
		{"quote satisfies extractive", 100, words(90) + " " + quote, 0.2, true},
		{"list required for large band", 220, words(110) + "\n\n" + words(110), 0.7, false},
		{"large band with list", 220, words(100) + "\n\n" + words(100) + "\n\n- one\n- two\n- three", 0.7, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := blog.CheckSection(sectionWith(tt.target, tt.content), tt.alpha)
			assert.Equal(t, tt.wantOK, c.OK, "check %+v", c)
		})
	}

	t.Run("unmet requirements name each failure", func(t *testing.T) {
		t.Parallel()
		s := sectionWith(220, words(50))
		c := blog.CheckSection(s, 0.2)
		unmet := blog.UnmetRequirement(s, c, 0.2)
		require.Len(t, unmet, 4)
		assert.Contains(t, unmet[0], "needs at least")
		assert.Contains(t, unmet[1], "paragraph")
		assert.Contains(t, unmet[2], "bulleted list")
		assert.Contains(t, unmet[3], "quote")
	})
}

// ---------------------------------------------------------------------------
// TestStyle
// ---------------------------------------------------------------------------

func TestStyle(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 3, blog.QuoteBudget(0))
	assert.Equal(t, 2, blog.QuoteBudget(0.4))
	assert.Equal(t, 0, blog.QuoteBudget(1))
	assert.True(t, blog.RequiresQuotes(0.3))
	assert.False(t, blog.RequiresQuotes(0.5))
	assert.Equal(t, 123, blog.SectionCeiling(117))
	assert.Equal(t, 182, blog.TokenBudget(100))
}

// ---------------------------------------------------------------------------
// TestTranscriptSlice
// ---------------------------------------------------------------------------

func TestTranscriptSlice(t *testing.T) {
	t.Parallel()

	t.Run("phase schedule", func(t *testing.T) {
		t.Parallel()
		want := []int{0, 0, 0, 1, 2, 0, 1}
		for attempt, phase := range want {
			assert.Equal(t, phase, blog.SlicePhase(attempt), "attempt %d", attempt)
		}
	})

	t.Run("keyword slice is bounded", func(t *testing.T) {
		t.Parallel()
		slice := blog.TranscriptSlice(transcriptOf(200), "Caching", nil, 0)
		assert.LessOrEqual(t, len(slice), blog.SliceMaxChars)
		assert.Contains(t, slice, "Caching keeps hot data")
		assert.NotContains(t, slice, "Capacity planning")
	})

	t.Run("thin slice rotates window", func(t *testing.T) {
		t.Parallel()
		transcript := words(3000)
		first := blog.TranscriptSlice(transcript, "Unrelated", nil, 0)
		second := blog.TranscriptSlice(transcript, "Unrelated", nil, 1)
		third := blog.TranscriptSlice(transcript, "Unrelated", nil, 2)
		assert.True(t, strings.HasPrefix(first, "word1 "))
		assert.NotEqual(t, first, second)
		assert.NotEqual(t, second, third)
		assert.LessOrEqual(t, len(second), blog.SliceMaxChars)
	})
}

// ---------------------------------------------------------------------------
// TestExpandSection
// ---------------------------------------------------------------------------

func TestExpandSection(t *testing.T) {
	t.Parallel()

	transcript := transcriptOf(60)
	ctx := context.Background()

	t.Run("accepts first draft within band", func(t *testing.T) {
		t.Parallel()
		fake := llm.NewFake().QueueText(words(110))
		res, err := blog.ExpandSection(ctx, fake, transcript, outlineSection("Caching", 117), 0.7, 6)
		require.NoError(t, err)
		assert.Equal(t, 0, res.Retries)
		assert.Equal(t, 0, res.Forced)
		assert.Equal(t, 110, res.Section.ActualWords)
		assert.Equal(t, 1, fake.TextCalls())
	})

	t.Run("clips overlong draft to ceiling", func(t *testing.T) {
		t.Parallel()
		fake := llm.NewFake().QueueText(words(300))
		res, err := blog.ExpandSection(ctx, fake, transcript, outlineSection("Caching", 117), 0.7, 6)
		require.NoError(t, err)
		assert.LessOrEqual(t, res.Section.ActualWords, blog.SectionCeiling(117))
		assert.GreaterOrEqual(t, res.Section.ActualWords, 105)
	})

	t.Run("continuation appends until band met", func(t *testing.T) {
		t.Parallel()
		fake := llm.NewFake().QueueText(words(60), words(50))
		res, err := blog.ExpandSection(ctx, fake, transcript, outlineSection("Caching", 117), 0.7, 6)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Retries)
		assert.Equal(t, 110, res.Section.ActualWords)
		assert.Equal(t, 2, textstat.ParagraphCount(res.Section.Content))
	})

	t.Run("strips heading lines from output", func(t *testing.T) {
		t.Parallel()
		fake := llm.NewFake().QueueText("## Caching\n\n" + words(110))
		res, err := blog.ExpandSection(ctx, fake, transcript, outlineSection("Caching", 117), 0.7, 6)
		require.NoError(t, err)
		assert.NotContains(t, res.Section.Content, "##")
	})

	t.Run("ten word responses force expansion once", func(t *testing.T) {
		t.Parallel()
		fake := llm.NewFake().OnText(func(int, llm.TextRequest) (string, error) {
			return words(10), nil
		})
		sec := outlineSection("Caching", 117)
		res, err := blog.ExpandSection(ctx, fake, transcript, sec, 0.7, 6)
		require.NoError(t, err)
		assert.Equal(t, 6, res.Retries)
		assert.Equal(t, 1, res.Forced)
		assert.Equal(t, 8, fake.TextCalls())
		assert.GreaterOrEqual(t, res.Section.ActualWords, sec.MinWords)
		assert.LessOrEqual(t, res.Section.ActualWords, sec.MaxWords)
	})

	t.Run("terminates for any retry budget", func(t *testing.T) {
		t.Parallel()
		for retries := 0; retries <= 6; retries++ {
			fake := llm.NewFake().OnText(func(int, llm.TextRequest) (string, error) {
				return "Short.", nil
			})
			sec := outlineSection("Latency", 200)
			res, err := blog.ExpandSection(ctx, fake, transcript, sec, 0.2, retries)
			require.NoError(t, err)
			assert.LessOrEqual(t, fake.TextCalls(), retries+2)
			assert.GreaterOrEqual(t, res.Section.ActualWords, sec.MinWords)
		}
	})

	t.Run("format failure rewrites without losing length", func(t *testing.T) {
		t.Parallel()
		good := words(100) + "\n\n" + words(100) + "\n\n- one\n- two\n- three"
		fake := llm.NewFake().QueueText(words(205), words(30), good)
		sec := outlineSection("Latency", 220)
		res, err := blog.ExpandSection(ctx, fake, transcript, sec, 0.7, 6)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Retries)
		assert.Equal(t, good, res.Section.Content)
	})

	t.Run("empty text is fatal", func(t *testing.T) {
		t.Parallel()
		fake := llm.NewFake().QueueText("   ")
		_, err := blog.ExpandSection(ctx, fake, transcript, outlineSection("Caching", 117), 0.7, 6)
		assert.ErrorIs(t, err, apierr.ErrEmptyResponse)
	})

	t.Run("cancellation stops retries", func(t *testing.T) {
		t.Parallel()
		cctx, cancel := context.WithCancel(ctx)
		fake := llm.NewFake().OnText(func(n int, _ llm.TextRequest) (string, error) {
			if n == 1 {
				cancel()
			}
			return words(10), nil
		})
		_, err := blog.ExpandSection(cctx, fake, transcript, outlineSection("Caching", 117), 0.7, 6)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 2, fake.TextCalls())
	})
}
