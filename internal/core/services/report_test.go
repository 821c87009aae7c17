package services

import (
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-chat-resolver/internal/domain"
)

func TestRenderReport(t *testing.T) {
	t.Run("ошибки, заголовки и переполнение", func(t *testing.T) {
		report := domain.Report{
			Skips: []domain.SkipReason{{Ref: "https://t.me/+abc123", Cause: domain.SkipPrivate}},
			Failures: []domain.Outcome{
				domain.Failure(domain.Handle{Username: "missing_chat"}, "Bad Request: chat not found"),
			},
			Resolved: []domain.ResolvedChat{
				{Handle: domain.Handle{Username: "news_channel"}, Title: "News", Kind: domain.KindChannel},
				{Handle: domain.Handle{Username: "daily_digest", Path: "15"}, Title: "Tom & <Jerry>", Kind: domain.KindChannel},
			},
			Overflow:   []domain.Handle{{Username: "later_channel"}},
			Overloaded: true,
		}

		blocks := RenderReport(report)

		assert.Equal(t, []string{"https://t.me/+abc123 is private\nBad Request: chat not found"}, blocks.Errors)
		assert.Equal(t, []string{
			"@news_channel News\n" + `<a href="https://t.me/daily_digest/15">Tom &amp; &lt;Jerry&gt;</a>`,
		}, blocks.Titles)
		assert.Equal(t, []string{"https://t.me/later_channel"}, blocks.Overflow)
	})

	t.Run("пустой отчет", func(t *testing.T) {
		blocks := RenderReport(domain.Report{})
		assert.Empty(t, blocks.Errors)
		assert.Empty(t, blocks.Titles)
		assert.Empty(t, blocks.Overflow)
	})

	t.Run("заголовок экранируется и в строке @name", func(t *testing.T) {
		line := TitleLine(domain.ResolvedChat{Handle: domain.Handle{Username: "news_channel"}, Title: "A<b>"})
		assert.Equal(t, "@news_channel A&lt;b&gt;", line)
	})
}

func TestRenderReport_RoundTrip(t *testing.T) {
	h := domain.Handle{Username: "news_channel"}
	line := TitleLine(domain.ResolvedChat{Handle: h, Title: "News", Kind: domain.KindChannel})

	mention := strings.Fields(line)[0]
	got := Canonicalize(domain.RawReference{Kind: domain.RefMention, Text: mention}, DefaultPolicy())

	require.Equal(t, domain.CandidateHandle, got.Kind)
	assert.Equal(t, h, got.Handle)
}

func TestRenderCollected(t *testing.T) {
	ex := domain.Extraction{
		Handles: []domain.Handle{{Username: "alpha_channel"}, {Username: "beta_channel", Path: "3"}},
		Skips:   []domain.SkipReason{{Ref: "@helper_bot", Cause: domain.SkipBot}},
	}

	assert.Equal(t, []string{
		"@helper_bot is a bot\nhttps://t.me/alpha_channel\nhttps://t.me/beta_channel/3",
	}, RenderCollected(ex))
}

func TestSplitMessages(t *testing.T) {
	t.Run("режет по границам строк", func(t *testing.T) {
		got := SplitMessages([]string{"aaaa", "bbbb", "cccc"}, 9)
		assert.Equal(t, []string{"aaaa\nbbbb", "cccc"}, got)
	})

	t.Run("длинная строка режется по рунам", func(t *testing.T) {
		got := SplitMessages([]string{"abcdefgh"}, 3)
		assert.Equal(t, []string{"abc", "def", "gh"}, got)
	})

	t.Run("длина считается в UTF-16", func(t *testing.T) {
		// Каждый 😀 — две UTF-16 единицы.
		got := SplitMessages([]string{"😀😀", "😀😀"}, 5)
		assert.Equal(t, []string{"😀😀", "😀😀"}, got)
	})

	t.Run("каждое сообщение укладывается в лимит", func(t *testing.T) {
		lines := make([]string, 500)
		for i := range lines {
			lines[i] = "https://t.me/some_long_channel_name_" + strings.Repeat("x", i%20)
		}

		got := SplitMessages(lines, MaxMessageLength)

		require.Greater(t, len(got), 1)
		for _, msg := range got {
			assert.LessOrEqual(t, len(utf16.Encode([]rune(msg))), MaxMessageLength)
		}
		assert.Equal(t, strings.Join(lines, "\n"), strings.Join(got, "\n"))
	})

	t.Run("нет строк", func(t *testing.T) {
		assert.Nil(t, SplitMessages(nil, MaxMessageLength))
	})
}
