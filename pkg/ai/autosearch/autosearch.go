// Package autosearch decides whether a user message needs fresh information
// and, when it does, turns the top search hit into a grounded answer.
package autosearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"oreza-assistant-be/internal/pkg/logger"
	"oreza-assistant-be/pkg/llm"
	"oreza-assistant-be/pkg/search"
)

const logModule = "AutoSearch"

var ErrNoBackend = errors.New("autosearch: no analysis backend configured")

var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

type Decision struct {
	ShouldSearch bool   `json:"should_search"`
	Query        string `json:"query"`
}

const decisionPrompt = `あなたは検索が必要かどうかを判断するAIアシスタントです。

ユーザーの質問を分析して、Google検索が必要かどうかを判断してください。

検索が必要な場合:
- 最新の情報が必要な質問(ニュース、天気、株価、イベントなど)
- 事実確認が必要な質問(歴史、統計、データなど)
- 具体的な情報を求める質問(営業時間、場所、価格など)
- 専門的な知識が必要な質問
- あなたの知識では答えられない質問

検索が不要な場合:
- 一般的な会話や挨拶
- 個人的な意見や感想を求める質問
- 簡単な計算や論理的推論で答えられる質問
- 一般常識で答えられる質問

ユーザーメッセージ: %s

以下のJSON形式で回答してください:
{
    "should_search": true/false,
    "query": "検索クエリ(検索が必要な場合のみ、日本語で簡潔に)"
}`

const answerPrompt = `あなたは親切で知識豊富なAIアシスタント「Oreza」です。

ユーザーの質問に対して、Webページから取得した情報を学習して回答を生成してください。

ユーザーの質問: %s

検索クエリ: %s

取得した情報(URL: %s):
%s

回答のガイドライン:
1. 取得した情報を基に、正確で分かりやすい回答を生成
2. 情報源のURLを最後に記載する
3. 取得した情報に答えがない場合は、その旨を伝える
4. 日本語で自然な会話口調で回答
5. 必要に応じて箇条書きや段落を使って読みやすく
6. 回答は簡潔に(300文字程度)

回答:`

type Searcher struct {
	provider llm.LLMProvider
	search   search.Provider
	fetcher  search.Fetcher
	logger   logger.ILogger
}

func New(provider llm.LLMProvider, searchProvider search.Provider, fetcher search.Fetcher, log logger.ILogger) *Searcher {
	return &Searcher{
		provider: provider,
		search:   searchProvider,
		fetcher:  fetcher,
		logger:   log,
	}
}

// Decide asks the backend whether the message needs a web search.
// A failed or unparseable decision means no search.
func (s *Searcher) Decide(ctx context.Context, userMessage string) (Decision, error) {
	if s.provider == nil {
		return Decision{}, ErrNoBackend
	}

	raw, err := s.provider.Generate(ctx, fmt.Sprintf(decisionPrompt, userMessage), llm.WithTemperature(0.3))
	if err != nil {
		return Decision{}, fmt.Errorf("search decision: %w", err)
	}

	var d Decision
	if err := json.Unmarshal([]byte(jsonObject.FindString(raw)), &d); err != nil {
		return Decision{}, fmt.Errorf("search decision: %w", err)
	}
	d.Query = strings.TrimSpace(d.Query)
	if d.Query == "" {
		d.ShouldSearch = false
	}
	return d, nil
}

// Answer summarises a fetched page for the user's question and cites it.
func (s *Searcher) Answer(ctx context.Context, userMessage, query, pageContent, pageURL string) (string, error) {
	if s.provider == nil {
		return "", ErrNoBackend
	}

	prompt := fmt.Sprintf(answerPrompt, userMessage, query, pageURL, pageContent)
	answer, err := s.provider.Generate(ctx, prompt, llm.WithTemperature(0.7), llm.WithMaxTokens(400))
	if err != nil {
		return "", fmt.Errorf("search answer: %w", err)
	}
	return answer + "\n\n📎 参考: " + pageURL, nil
}

// Lookup runs decide, search, fetch and answer. It reports false whenever
// any step declines or fails, so callers simply omit the search context.
func (s *Searcher) Lookup(ctx context.Context, userMessage string) (string, bool) {
	d, err := s.Decide(ctx, userMessage)
	if err != nil {
		s.logger.Debug(logModule, "Search decision unavailable", map[string]interface{}{"error": err.Error()})
		return "", false
	}
	if !d.ShouldSearch {
		return "", false
	}
	s.logger.Info(logModule, "Auto-search triggered", map[string]interface{}{"query": d.Query})

	results, err := s.search.Search(ctx, d.Query, 1, search.KindWeb)
	if err != nil || len(results) == 0 || results[0].Link == "" {
		if err != nil {
			s.logger.Warn(logModule, "Auto-search provider failed", map[string]interface{}{"error": err.Error()})
		}
		return "", false
	}
	pageURL := results[0].Link

	content, err := s.fetcher.FetchText(ctx, pageURL)
	if err != nil || content == "" {
		return "", false
	}

	answer, err := s.Answer(ctx, userMessage, d.Query, content, pageURL)
	if err != nil {
		s.logger.Warn(logModule, "Auto-search answer failed", map[string]interface{}{"error": err.Error()})
		return "", false
	}
	return answer, true
}
