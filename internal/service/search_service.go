package service

import (
	"context"
	"fmt"
	"strings"

	"oreza-assistant-be/internal/dto"
	"oreza-assistant-be/internal/pkg/logger"
	"oreza-assistant-be/pkg/llm"
	"oreza-assistant-be/pkg/search"

	"github.com/gofiber/fiber/v2"
)

const (
	searchLogModule   = "SearchService"
	searchResultCount = 5
	summaryItems      = 3
	analysisItems     = 5
)

const analysisSystemPrompt = "あなたはユーザー専属のAIアシスタントです。検索結果を分析し、ユーザーに価値ある情報を提供します。"

const analysisInstructions = `

上記の検索結果を分析して、以下を含む要約を作成してください：

1. **主要な発見**: 検索結果から得られる最も重要な情報
2. **要約**: 検索結果全体の簡潔なまとめ
3. **関連情報**: ユーザーが知りたいと思われる追加情報

自然で読みやすい文章で回答してください。`

type ISearchService interface {
	Search(ctx context.Context, req *dto.SearchRequest) *dto.SearchResponse
	Analyze(ctx context.Context, req *dto.SearchAnalysisRequest) (*dto.SearchAnalysisResponse, error)
}

type searchService struct {
	provider search.Provider
	analyst  llm.LLMProvider
	sessions ISessionService
	logger   logger.ILogger
}

func NewSearchService(provider search.Provider, analyst llm.LLMProvider, sessions ISessionService, log logger.ILogger) ISearchService {
	return &searchService{
		provider: provider,
		analyst:  analyst,
		sessions: sessions,
		logger:   log,
	}
}

// Search runs an explicit search and records a short digest in the session
// history. A provider failure yields an empty result list.
func (s *searchService) Search(ctx context.Context, req *dto.SearchRequest) *dto.SearchResponse {
	kind := search.KindWeb
	if req.SearchType == string(search.KindImage) {
		kind = search.KindImage
	}

	results, err := s.provider.Search(ctx, req.Query, searchResultCount, kind)
	if err != nil {
		s.logger.Warn(searchLogModule, "Search failed", map[string]interface{}{
			"query": req.Query,
			"error": err.Error(),
		})
		results = []search.Result{}
	}

	sess := s.sessions.GetOrCreate(ctx, req.SessionID)
	release := sess.BeginTurn()
	sess.Append(llm.RoleAssistant, searchDigest(req.Query, kind, results))
	release()
	s.sessions.Touch(sess)

	return &dto.SearchResponse{
		Results:    results,
		SessionID:  sess.ID,
		Query:      req.Query,
		SearchType: string(kind),
	}
}

func searchDigest(query string, kind search.Kind, results []search.Result) string {
	var b strings.Builder
	if kind == search.KindImage {
		fmt.Fprintf(&b, "🖼️ [画像検索] %s\n\n", query)
	} else {
		fmt.Fprintf(&b, "🔍 [Web検索] %s\n\n", query)
	}
	for i, r := range results {
		if i == summaryItems {
			break
		}
		if kind == search.KindImage {
			fmt.Fprintf(&b, "%d. %s\n画像URL: %s\n\n", i+1, r.Title, r.ImageURL)
		} else {
			fmt.Fprintf(&b, "%d. %s\n%s\n\n", i+1, r.Title, r.Snippet)
		}
	}
	return b.String()
}

func (s *searchService) Analyze(ctx context.Context, req *dto.SearchAnalysisRequest) (*dto.SearchAnalysisResponse, error) {
	if s.analyst == nil {
		return nil, fiber.NewError(fiber.StatusServiceUnavailable, "No analysis backend configured")
	}

	analysis, err := s.analyst.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: analysisSystemPrompt},
		{Role: llm.RoleUser, Content: analysisContext(req) + analysisInstructions},
	}, llm.WithTemperature(0.7))
	if err != nil {
		s.logger.Error(searchLogModule, "Search analysis failed", map[string]interface{}{"error": err.Error()})
		return nil, fiber.NewError(fiber.StatusBadGateway, "Search analysis failed")
	}

	sess := s.sessions.GetOrCreate(ctx, req.SessionID)
	release := sess.BeginTurn()
	sess.Append(llm.RoleAssistant, "🤖 AI分析:\n\n"+analysis)
	release()
	s.sessions.Touch(sess)

	return &dto.SearchAnalysisResponse{Analysis: analysis, SessionID: sess.ID}, nil
}

func analysisContext(req *dto.SearchAnalysisRequest) string {
	var b strings.Builder
	image := req.SearchType == string(search.KindImage)
	if image {
		fmt.Fprintf(&b, "画像検索クエリ: %s\n\n検索結果:\n", req.Query)
	} else {
		fmt.Fprintf(&b, "Web検索クエリ: %s\n\n検索結果:\n", req.Query)
	}
	for i, r := range req.Results {
		if i == analysisItems {
			break
		}
		if image {
			fmt.Fprintf(&b, "%d. %s\n画像URL: %s\n\n", i+1, r.Title, r.ImageURL)
		} else {
			fmt.Fprintf(&b, "%d. %s\n%s\nURL: %s\n\n", i+1, r.Title, r.Snippet, r.Link)
		}
	}
	return b.String()
}
