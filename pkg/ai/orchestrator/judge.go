package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"oreza-assistant-be/pkg/llm"
)

const judgeTemperature = 0.3

const judgeRole = "\n\nあなたはメタAIとして、複数のAIモデルの応答を評価し、最適な応答を選択または統合する役割を担っています。\n" +
	"評価結果は「私はあなたのAIです」という一貫した人格で提示してください。\n\n"

const judgeCriteria = "以下の基準で評価し、最適な応答を提示してください:\n" +
	"1. **正確性**: 情報の正確さと信頼性\n" +
	"2. **文脈適合性**: ユーザーの意図との一致度\n" +
	"3. **完全性**: 質問に対する網羅的な回答\n" +
	"4. **明確性**: わかりやすさと構造\n\n" +
	"最終的な応答のみを出力してください（評価プロセスは含めないでください）。"

func (o *Orchestrator) judgeMerge(ctx context.Context, messages []llm.Message) Result {
	candidates, err := o.gather(ctx, messages)
	if err != nil {
		return o.failed(err)
	}
	switch {
	case len(candidates) == 0:
		return o.failed(ErrAllFailed)
	case len(candidates) == 1 || o.judge == nil:
		return selected(candidates)
	}

	prompt := o.judgePrompt(lastUserMessage(messages), candidates)
	verdict, err := o.bounded(ctx, o.judge, []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		llm.WithTemperature(judgeTemperature))
	if err == nil && verdict == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		// The budget covers the judge too.
		return o.failed(err)
	}
	if verdict == nil {
		o.logger.Warn(logModule, "Judge failed, falling back to best candidate", map[string]interface{}{
			"judge": o.judge.ID(),
		})
		res := selected(candidates)
		res.Metadata.Fallback = true
		return res
	}

	return Result{
		Text: verdict.Content,
		Metadata: Metadata{
			ValidGenerators: candidateIDs(candidates),
			Judge:           o.judge.ID(),
		},
	}
}

func (o *Orchestrator) judgePrompt(query string, candidates []*Candidate) string {
	var b strings.Builder
	b.WriteString(o.persona)
	b.WriteString(judgeRole)
	b.WriteString("ユーザーの質問:\n")
	b.WriteString(query)
	b.WriteString("\n\n以下は、異なるAIモデルからの応答です:\n\n")
	for i, c := range candidates {
		fmt.Fprintf(&b, "\n【応答 %d】 (%s)\n信頼度: %.2f\n理由: %s\n内容:\n%s\n\n",
			i+1, c.GeneratorID, c.Confidence, c.Reasoning, c.Content)
	}
	b.WriteString(judgeCriteria)
	return b.String()
}

func lastUserMessage(messages []llm.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == llm.RoleUser {
			return messages[i].Content
		}
	}
	return ""
}
