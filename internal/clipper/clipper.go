// Package clipper imports recipes from web pages into the recipe store.
package clipper

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"text/template"
	"time"

	"dinner-planner/internal/llm"
	"dinner-planner/internal/recipe"
	"dinner-planner/internal/shared"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
)

//go:embed extractor_prompt.md
var extractorPrompt string

// Clipper fetches a recipe page, extracts structured data with the model,
// enriches ingredient allergen groups, and saves the result.
type Clipper struct {
	textGen    llm.TextGenerator
	recipeRepo *recipe.Repository
	httpClient *http.Client
}

// NewClipper creates a new Clipper instance.
func NewClipper(textGen llm.TextGenerator, recipeRepo *recipe.Repository) *Clipper {
	return &Clipper{
		textGen:    textGen,
		recipeRepo: recipeRepo,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type extractorPromptData struct {
	URL     string
	Content string
}

// ClipURL fetches the URL, extracts the recipe, and saves it to the store.
func (c *Clipper) ClipURL(ctx context.Context, url string) (*recipe.Recipe, shared.AgentMeta, error) {
	content, err := c.fetchAndCleanHTML(ctx, url)
	if err != nil {
		return nil, shared.AgentMeta{}, fmt.Errorf("failed to fetch content: %w", err)
	}

	rec, meta, err := c.extract(ctx, url, content)
	if err != nil {
		return nil, meta, err
	}

	rec.ID = uuid.NewString()
	rec.SourceURL = url
	rec.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	EnrichAllergens(rec)

	if err := c.recipeRepo.Save(ctx, *rec); err != nil {
		return nil, meta, fmt.Errorf("failed to save clipped recipe: %w", err)
	}
	return rec, meta, nil
}

func (c *Clipper) extract(ctx context.Context, url, content string) (*recipe.Recipe, shared.AgentMeta, error) {
	start := time.Now()

	tmpl, err := template.New("extractor").Parse(extractorPrompt)
	if err != nil {
		return nil, shared.AgentMeta{}, err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, extractorPromptData{URL: url, Content: content}); err != nil {
		return nil, shared.AgentMeta{}, err
	}

	resp, err := c.textGen.GenerateContent(ctx, buf.String())
	meta := shared.AgentMeta{
		AgentName: "Extractor",
		Usage:     resp.Usage,
		Latency:   time.Since(start),
	}
	if err != nil {
		return nil, meta, fmt.Errorf("recipe extraction failed: %w", err)
	}

	var rec recipe.Recipe
	if err := json.Unmarshal([]byte(resp.Content), &rec); err != nil {
		return nil, meta, fmt.Errorf("failed to parse extraction response: %w. Response: %s", err, resp.Content)
	}
	return &rec, meta, nil
}

func (c *Clipper) fetchAndCleanHTML(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	// Remove noise to save model tokens.
	doc.Find("script, style, nav, footer, iframe, ads, .ads, #ads").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	return strings.TrimSpace(doc.Find("body").Text()), nil
}
