package main

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/kaptinlin/jsonrepair"
	"golang.org/x/text/unicode/norm"
)

// titlePad is appended to titles that come out shorter than the minimum
const titlePad = " 시작해 보세요"

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	htmlTagRe    = regexp.MustCompile(`(?i)<(p|br|div|h[1-6]|ul|ol|li|strong|em)\b`)
	codeFenceRe  = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")
)

// categoryPair is one cat1/cat2 slot of the category table
type categoryPair struct {
	Main string
	Sub  string
}

func (c categoryPair) String() string {
	return c.Main + "/" + c.Sub
}

// ContentGenerator drafts posts for the queue
type ContentGenerator struct {
	model    textModel
	fallback textModel
	settings GeneratorSettings
	prompt   string
	now      func() time.Time
}

// NewContentGenerator uses the writer agent when an API key is configured and
// the fixed template otherwise
func NewContentGenerator(cfg *Config) (*ContentGenerator, error) {
	g := cfg.Settings.Generator
	fallback := templateModel{disclaimer: g.Disclaimer}

	var model textModel = fallback
	if cfg.APIKey != "" {
		agent, err := newWriterAgent(cfg.APIKey, g)
		if err != nil {
			return nil, err
		}
		model = agent
	} else {
		logWarn("ANTHROPIC_API_KEY not set, using template content")
	}

	return &ContentGenerator{
		model:    model,
		fallback: fallback,
		settings: g,
		prompt:   loadWriterPrompt(),
		now:      time.Now,
	}, nil
}

// ModelName reports which model drafts the posts
func (g *ContentGenerator) ModelName() string {
	return g.model.Name()
}

// GeneratePost drafts one post and applies the title and disclaimer rules
func (g *ContentGenerator) GeneratePost(cat1, cat2, topic string) (string, string, error) {
	if topic == "" {
		topic = cat2 + " 관리 가이드"
	}
	req := postRequest{
		Prompt:    g.buildPrompt(topic, cat1, cat2),
		Topic:     topic,
		Category1: cat1,
		Category2: cat2,
	}

	raw, err := g.model.Generate(req)
	if err != nil {
		if g.fallback == nil || g.model == g.fallback {
			return "", "", err
		}
		logWarn("%s failed, using template: %v", g.model.Name(), err)
		if raw, err = g.fallback.Generate(req); err != nil {
			return "", "", err
		}
	}

	title, body := parsePost(raw)
	if title == "" {
		title = topic
	}
	if body == "" {
		return "", "", fmt.Errorf("model returned no body for %s/%s", cat1, cat2)
	}
	title = wrapTitle(title, cat1, cat2, g.settings)
	body = ensureDisclaimer(body, g.settings.Disclaimer)
	return title, body, nil
}

func (g *ContentGenerator) buildPrompt(topic, cat1, cat2 string) string {
	r := strings.NewReplacer(
		"{{.Topic}}", topic,
		"{{.Category1}}", cat1,
		"{{.Category2}}", cat2,
		"{{.TitleMin}}", strconv.Itoa(g.settings.TitleMin),
		"{{.TitleMax}}", strconv.Itoa(g.settings.TitleMax),
		"{{.Forbidden}}", strings.Join(g.settings.ForbiddenWords, ", "),
	)
	return r.Replace(g.prompt)
}

// FillEmpty drafts title and/or body for queue rows that are missing them.
// Existing text is kept; blank rows are ignored. Returns the number of rows
// updated.
func (g *ContentGenerator) FillEmpty(store *Store) (int, error) {
	rows, err := store.Rows()
	if err != nil {
		return 0, err
	}

	plan := categoryPlan(g.settings.Categories, 0)
	next := 0
	filled := 0
	for _, row := range rows {
		if !row.NeedsContent() || blankRow(row) {
			continue
		}

		cat1, cat2, ok := row.Categories()
		if !ok {
			if len(plan) == 0 {
				return filled, fmt.Errorf("row %d has no category and no categories are configured", row.Index)
			}
			pair := plan[next%len(plan)]
			next++
			cat1, cat2 = pair.Main, pair.Sub
		}

		logStep("Drafting row %d (%s/%s) with %s", row.Index, cat1, cat2, g.model.Name())
		title, body, err := g.GeneratePost(cat1, cat2, strings.TrimSpace(row.Title))
		if err != nil {
			return filled, fmt.Errorf("drafting row %d: %w", row.Index, err)
		}
		if t := strings.TrimSpace(row.Title); t != "" {
			title = t
		}
		if b := strings.TrimSpace(row.Body); b != "" {
			body = row.Body
		}
		query := row.ImageQuery
		if strings.TrimSpace(query) == "" {
			query = cat2
		}

		if err := store.UpdateContent(row.Index, title, body, query, cat1+"/"+cat2, g.now()); err != nil {
			return filled, err
		}
		logDone("Row %d drafted: %s", row.Index, title)
		filled++
	}
	return filled, nil
}

// AppendNew drafts new posts and appends them with status 미발행. count 0
// means one post per sub-category. Titles already in the queue are skipped.
func (g *ContentGenerator) AppendNew(store *Store, count int, topic string) (int, error) {
	if _, err := store.EnsureExists(0); err != nil {
		return 0, err
	}
	rows, err := store.Rows()
	if err != nil {
		return 0, err
	}
	existing := make(map[string]bool, len(rows))
	for _, r := range rows {
		existing[strings.TrimSpace(r.Title)] = true
	}

	var fresh []Row
	for _, pair := range categoryPlan(g.settings.Categories, count) {
		title, body, err := g.GeneratePost(pair.Main, pair.Sub, topic)
		if err != nil {
			return 0, fmt.Errorf("drafting %s: %w", pair, err)
		}
		if existing[title] {
			logWarn("duplicate title skipped: %s", title)
			continue
		}
		existing[title] = true
		fresh = append(fresh, Row{
			Title:      title,
			Body:       body,
			Status:     statusUnpublished,
			UpdatedAt:  formatTimestamp(g.now()),
			ImageQuery: pair.Sub,
			Category:   pair.String(),
		})
	}

	if err := store.Append(fresh); err != nil {
		return 0, err
	}
	return len(fresh), nil
}

// categoryPlan lists category slots in table order, stopping after count
// entries when count is positive
func categoryPlan(groups []CategoryGroup, count int) []categoryPair {
	var plan []categoryPair
	for _, group := range groups {
		for _, sub := range group.Subcategories {
			if count > 0 && len(plan) >= count {
				return plan
			}
			plan = append(plan, categoryPair{Main: group.Name, Sub: sub})
		}
	}
	return plan
}

func blankRow(r Row) bool {
	return strings.TrimSpace(r.Title) == "" &&
		strings.TrimSpace(r.Body) == "" &&
		strings.TrimSpace(r.ImageQuery) == "" &&
		strings.TrimSpace(r.Category) == ""
}

// parsePost splits model output into title and body. JSON output is
// preferred; otherwise the first line is the title.
func parsePost(raw string) (string, string) {
	raw = strings.TrimSpace(raw)
	if m := codeFenceRe.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	}

	var title, body string
	if strings.HasPrefix(raw, "{") {
		var post struct {
			Title string `json:"title"`
			Body  string `json:"body"`
		}
		repaired, err := jsonrepair.JSONRepair(raw)
		if err == nil && json.Unmarshal([]byte(repaired), &post) == nil && post.Title != "" {
			title, body = post.Title, post.Body
		}
	}
	if title == "" {
		parts := strings.SplitN(raw, "\n", 2)
		title = parts[0]
		if len(parts) > 1 {
			body = parts[1]
		}
	}

	title = strings.Trim(strings.TrimSpace(title), "#*\"")
	body = strings.TrimSpace(body)
	if htmlTagRe.MatchString(body) {
		if converted, err := md.NewConverter("", true, nil).ConvertString(body); err == nil {
			body = strings.TrimSpace(converted)
		}
	}
	return strings.TrimSpace(title), body
}

// wrapTitle prefixes the category pair once, removes forbidden words and fits
// the title into [TitleMin, TitleMax] runes
func wrapTitle(title, cat1, cat2 string, g GeneratorSettings) string {
	title = norm.NFC.String(strings.TrimSpace(title))
	prefix := norm.NFC.String(fmt.Sprintf("[%s/%s] ", cat1, cat2))
	if !strings.HasPrefix(title, prefix) {
		title = prefix + title
	}
	title = sanitizeTitle(title, g.ForbiddenWords)
	title = strings.TrimSpace(clipRunes(title, g.TitleMax))

	// Padding can be clipped back, so bound the attempts
	for i := 0; i < 5 && utf8.RuneCountInString(title) < g.TitleMin; i++ {
		title = strings.TrimSpace(clipRunes(title+titlePad, g.TitleMax))
	}
	return title
}

func sanitizeTitle(title string, forbidden []string) string {
	for _, word := range forbidden {
		if word != "" {
			title = strings.ReplaceAll(title, norm.NFC.String(word), "")
		}
	}
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(title), " ")
}

func clipRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

// ensureDisclaimer appends the disclaimer unless the body already has it
func ensureDisclaimer(body, disclaimer string) string {
	if disclaimer == "" || strings.Contains(body, disclaimer) {
		return body
	}
	return strings.TrimRight(body, " \t\r\n") + "\n\n" + disclaimer
}
