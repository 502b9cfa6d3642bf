package main

import (
	"fmt"
	"strings"

	"github.com/aktagon/llmkit/anthropic/agents"
)

const writerSystemPrompt = "You write Korean health blog posts for an online mall. Follow the guideline in the request exactly and answer with the requested JSON object only."

// postRequest is everything a model needs to draft one post
type postRequest struct {
	Prompt    string
	Topic     string
	Category1 string
	Category2 string
}

// textModel drafts raw post text; the generator cleans it up afterwards
type textModel interface {
	Name() string
	Generate(req postRequest) (string, error)
}

// writerAgent drafts posts with Claude
type writerAgent struct {
	agent    *agents.ChatAgent
	settings GeneratorSettings
	schema   string
}

func newWriterAgent(apiKey string, settings GeneratorSettings) (*writerAgent, error) {
	agent, err := agents.New(apiKey)
	if err != nil {
		return nil, fmt.Errorf("creating writer agent: %w", err)
	}
	return &writerAgent{
		agent:    agent,
		settings: settings,
		schema:   strings.TrimSpace(defaultPostSchema),
	}, nil
}

func (w *writerAgent) Name() string { return "claude" }

func (w *writerAgent) Generate(req postRequest) (string, error) {
	debugLog("writer prompt for %s/%s: %d bytes", req.Category1, req.Category2, len(req.Prompt))
	response, err := w.agent.Chat(req.Prompt, &agents.ChatOptions{
		SystemPrompt: writerSystemPrompt,
		Schema:       w.schema,
		MaxTokens:    w.settings.MaxTokens,
		Temperature:  w.settings.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("writer agent chat: %w", err)
	}
	if strings.TrimSpace(response.Text) == "" {
		return "", fmt.Errorf("no content in writer response")
	}
	return response.Text, nil
}

// templateModel produces a fixed, guideline-shaped post. It is used when no
// API key is configured and as the fallback when the writer agent fails.
type templateModel struct {
	disclaimer string
}

func (templateModel) Name() string { return "template" }

func (m templateModel) Generate(req postRequest) (string, error) {
	title := fmt.Sprintf("%s, 작은 습관으로 달라지는 하루", req.Category2)
	body := strings.Join([]string{
		"후크: 요즘 일상이 바쁜데도 증상 때문에 힘드시죠? 오늘은 작은 습관이 큰 변화를 만드는 방법을 소개합니다.",
		"왜 중요한가: 몸의 균형과 생활습관이 건강 전반에 미치는 영향은 크며, 연구에서도 생활습관 개선이 중요한 요인으로 보고됩니다.",
		"1) 물 마시기 루틴 만들기 💧 …\n2) 가벼운 걷기 습관 들이기 🚶 …\n3) 취침 전 휴대폰 줄이기 🌙 …",
		"주의사항: 약물 복용 중이거나 기존 질환이 있다면 전문가와 상담하세요.",
		"요약: 오늘부터 작은 실천으로도 건강 변화를 느낄 수 있습니다. 😊",
		"근거자료:\n- WHO 가이드\n- 질병관리청 자료",
	}, "\n\n")
	if m.disclaimer != "" {
		body += "\n\n" + m.disclaimer
	}
	return title + "\n" + body, nil
}
