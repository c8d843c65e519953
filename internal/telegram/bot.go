// Package telegram exposes the planner through a Telegram webhook bot.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"dinner-planner/internal/clipper"
	"dinner-planner/internal/config"
	"dinner-planner/internal/history"
	"dinner-planner/internal/metrics"
	"dinner-planner/internal/planner"
	"dinner-planner/internal/recipe"
	"dinner-planner/internal/shopping"
	"dinner-planner/internal/swap"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

const recentMealsWindow = 21

// Bot wraps the Telegram API and the planning, swapping and clipping flows.
type Bot struct {
	api          *tgbotapi.BotAPI
	planSvc      *planner.Service
	swapMatcher  *swap.Matcher
	recipeClip   *clipper.Clipper
	recipeRepo   *recipe.Repository
	planRepo     *planner.PlanRepository
	shoppingRepo *shopping.Repository
	historyRepo  *history.Repository
	metricsStore *metrics.Store
	cfg          *config.Config
}

// NewBot initializes the Telegram bot and sets the webhook.
func NewBot(
	cfg *config.Config,
	planSvc *planner.Service,
	swapMatcher *swap.Matcher,
	recipeClip *clipper.Clipper,
	recipeRepo *recipe.Repository,
	planRepo *planner.PlanRepository,
	shoppingRepo *shopping.Repository,
	historyRepo *history.Repository,
	metricsStore *metrics.Store,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Info().Str("account", api.Self.UserName).Msg("authorized on telegram")

	wh, _ := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Info().Str("response", resp.Description).Msg("webhook set")

	return &Bot{
		api:          api,
		planSvc:      planSvc,
		swapMatcher:  swapMatcher,
		recipeClip:   recipeClip,
		recipeRepo:   recipeRepo,
		planRepo:     planRepo,
		shoppingRepo: shoppingRepo,
		historyRepo:  historyRepo,
		metricsStore: metricsStore,
		cfg:          cfg,
	}, nil
}

// RegisterHandlers registers the webhook handler with the default HTTP mux.
func (b *Bot) RegisterHandlers() {
	http.HandleFunc("/webhook", b.handleWebhook)
	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		log.Error().Err(err).Msg("error parsing update")
		return
	}

	if update.Message == nil {
		return
	}

	isAllowed := false
	for _, id := range b.cfg.TelegramAllowedUserIDs {
		if update.Message.From.ID == id {
			isAllowed = true
			break
		}
	}

	if !isAllowed {
		log.Warn().Int64("user_id", update.Message.From.ID).
			Str("username", update.Message.From.UserName).
			Msg("unauthorized access attempt")
		return
	}

	go b.processMessage(update.Message)
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	text := strings.ToLower(strings.TrimSpace(msg.Text))
	switch {
	case text == "/metrics":
		b.handleMetricsRequest(msg)
	case text == "/plan":
		b.handleShowPlanRequest(msg)
	case text == "/history":
		b.handleHistoryRequest(msg)
	case strings.HasPrefix(msg.Text, "http://") || strings.HasPrefix(msg.Text, "https://"):
		b.handleClipperRequest(msg)
	case strings.HasPrefix(text, "swap"):
		b.handleSwapRequest(msg)
	case strings.HasPrefix(text, "cooked "):
		b.handleCookedRequest(msg)
	case text == "allergy" || text == "allergies" || strings.HasPrefix(text, "allergy "):
		b.handleAllergyRequest(msg)
	default:
		b.handlePlannerRequest(msg)
	}
}

// parseCookedName extracts the meal name from a "cooked <name>" message.
func parseCookedName(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) <= len("cooked") {
		return ""
	}
	return strings.TrimSpace(trimmed[len("cooked"):])
}

// parseAllergyCommand interprets an allergy message. "allergy <x>" adds an
// exclusion, "allergy remove <x>" drops one, and a bare "allergy" or
// "allergies" lists the current set.
func parseAllergyCommand(text string) (action, allergen string) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(text)))
	if len(fields) < 2 {
		return "list", ""
	}
	if fields[1] == "remove" || fields[1] == "clear" {
		if len(fields) < 3 {
			return "list", ""
		}
		return "remove", fields[2]
	}
	return "add", fields[1]
}

func (b *Bot) handleCookedRequest(msg *tgbotapi.Message) {
	ctx := context.Background()
	userID := fmt.Sprintf("%d", msg.From.ID)

	name := parseCookedName(msg.Text)
	if name == "" {
		b.send(msg.Chat.ID, "Tell me what you cooked, e.g. `cooked lasagna`.")
		return
	}

	// Attach the stored recipe when the name matches one, so history rows
	// carry a real ID. An unknown name is still recorded: the freshness
	// demotion only needs the name.
	recipeID := ""
	if rec, err := b.recipeRepo.FindByName(ctx, name); err != nil {
		log.Warn().Err(err).Str("name", name).Msg("failed to look up cooked recipe")
	} else if rec != nil {
		recipeID = rec.ID
		name = rec.Name
	}

	if err := b.historyRepo.RecordCooked(ctx, userID, recipeID, name, time.Now()); err != nil {
		log.Error().Err(err).Msg("failed to record cooked meal")
		b.send(msg.Chat.ID, "❌ I couldn't save that, sorry.")
		return
	}
	b.send(msg.Chat.ID, fmt.Sprintf("📝 Noted: *%s*. I'll rest it for a while before suggesting it again.", name))
}

func (b *Bot) handleAllergyRequest(msg *tgbotapi.Message) {
	ctx := context.Background()
	userID := fmt.Sprintf("%d", msg.From.ID)

	action, allergen := parseAllergyCommand(msg.Text)
	switch action {
	case "add":
		if err := b.historyRepo.AddAllergen(ctx, userID, allergen); err != nil {
			log.Error().Err(err).Msg("failed to add allergen")
			b.send(msg.Chat.ID, "❌ I couldn't save that, sorry.")
			return
		}
		b.send(msg.Chat.ID, fmt.Sprintf("🚫 Excluding *%s* from all future plans.", allergen))
	case "remove":
		if err := b.historyRepo.RemoveAllergen(ctx, userID, allergen); err != nil {
			log.Error().Err(err).Msg("failed to remove allergen")
			b.send(msg.Chat.ID, "❌ I couldn't save that, sorry.")
			return
		}
		b.send(msg.Chat.ID, fmt.Sprintf("✅ *%s* is no longer excluded.", allergen))
	default:
		allergens, err := b.historyRepo.Allergens(ctx, userID)
		if err != nil {
			log.Error().Err(err).Msg("failed to load allergens")
			b.send(msg.Chat.ID, "❌ I couldn't load your exclusions, sorry.")
			return
		}
		if len(allergens) == 0 {
			b.send(msg.Chat.ID, "No allergen exclusions yet. Add one with `allergy peanut`.")
			return
		}
		b.send(msg.Chat.ID, "🚫 *Excluded allergens:* "+strings.Join(allergens, ", "))
	}
}

func (b *Bot) handleShowPlanRequest(msg *tgbotapi.Message) {
	ctx := context.Background()
	userID := fmt.Sprintf("%d", msg.From.ID)
	weekStart := planner.GetNextMonday(time.Now())

	stored, err := b.planRepo.GetByUserAndWeek(ctx, userID, weekStart)
	if err != nil {
		log.Error().Err(err).Msg("failed to load stored plan")
		b.send(msg.Chat.ID, "❌ I couldn't load your plan, sorry.")
		return
	}
	if stored == nil {
		b.send(msg.Chat.ID, fmt.Sprintf("No plan saved for the week of %s yet. Just tell me what you feel like eating.",
			weekStart.Format("2006-01-02")))
		return
	}

	var result planner.PlanResult
	if err := json.Unmarshal(stored.PlanData, &result); err != nil {
		log.Error().Err(err).Str("plan_id", stored.ID).Msg("failed to decode stored plan")
		b.send(msg.Chat.ID, "❌ I couldn't read your stored plan, sorry.")
		return
	}

	b.send(msg.Chat.ID, formatPlanMarkdown(&result))
	if list, err := b.shoppingRepo.GetByMealPlanID(ctx, stored.ID); err == nil && list != nil && len(list.Items) > 0 {
		b.send(msg.Chat.ID, formatShoppingMarkdown(list.Items))
	}
}

func (b *Bot) handleHistoryRequest(msg *tgbotapi.Message) {
	ctx := context.Background()
	userID := fmt.Sprintf("%d", msg.From.ID)

	plans, err := b.planRepo.ListRecentByUserID(ctx, userID, 5)
	if err != nil {
		log.Error().Err(err).Msg("failed to list recent plans")
		b.send(msg.Chat.ID, "❌ I couldn't load your plan history, sorry.")
		return
	}
	if len(plans) == 0 {
		b.send(msg.Chat.ID, "No plans yet. Just tell me what you feel like eating.")
		return
	}

	var sb strings.Builder
	sb.WriteString("🗂 *Recent plans*\n\n")
	for _, p := range plans {
		sb.WriteString(fmt.Sprintf("• week of %s (created %s)\n",
			p.WeekStart.Format("2006-01-02"), p.CreatedAt.Format("Jan 2")))
	}
	b.send(msg.Chat.ID, sb.String())
}

func (b *Bot) handlePlannerRequest(msg *tgbotapi.Message) {
	statusText := "🧑‍🍳 *Thinking...* \n(Sampling recipes and picking your week)"
	replyMsg := tgbotapi.NewMessage(msg.Chat.ID, statusText)
	replyMsg.ParseMode = "Markdown"
	sentMsg, err := b.api.Send(replyMsg)
	if err != nil {
		log.Error().Err(err).Msg("failed to send initial reply")
		return
	}

	ctx := context.Background()
	userID := fmt.Sprintf("%d", msg.From.ID)
	weekStart := planner.GetNextMonday(time.Now())

	recentNames, err := b.historyRepo.RecentNames(ctx, userID, recentMealsWindow)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load recent meals, continuing without freshness data")
	}
	allergens, err := b.historyRepo.Allergens(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load allergen exclusions, continuing without")
	}

	result, err := b.planSvc.Plan(ctx, planner.PlanRequest{
		UserID:           userID,
		Message:          msg.Text,
		Dates:            planner.WeekDates(weekStart),
		WeekStart:        weekStart,
		RecentNames:      recentNames,
		ExcludeAllergens: allergens,
	})

	if result != nil {
		for _, m := range result.Metas {
			if err := b.metricsStore.RecordMeta(ctx, m); err != nil {
				log.Warn().Err(err).Msg("failed to record metrics")
			}
		}
	}

	if err != nil {
		log.Error().Err(err).Msg("error generating plan")
		safeErr := strings.ReplaceAll(err.Error(), "`", "'")
		b.edit(msg.Chat.ID, sentMsg.MessageID, fmt.Sprintf("❌ *Error generating plan:*\n```\n%v\n```", safeErr))
		return
	}

	// A re-plan for the same week replaces the previous plan's shopping list.
	prior, err := b.planRepo.GetByUserAndWeek(ctx, userID, weekStart)
	if err != nil {
		log.Warn().Err(err).Msg("failed to check for an existing plan")
	}

	planID, err := b.planRepo.Save(ctx, userID, weekStart, result)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("failed to save meal plan")
	} else if prior != nil {
		if err := b.shoppingRepo.DeleteByMealPlanID(ctx, prior.ID); err != nil {
			log.Warn().Err(err).Str("plan_id", prior.ID).Msg("failed to drop superseded shopping list")
		}
	}

	items := shopping.Consolidate(result.Selections)
	if planID != "" && len(items) > 0 {
		if _, err := b.shoppingRepo.Save(ctx, &shopping.ShoppingList{
			UserID:     userID,
			MealPlanID: planID,
			Items:      items,
		}); err != nil {
			log.Warn().Err(err).Msg("failed to save shopping list")
		}
	}

	b.edit(msg.Chat.ID, sentMsg.MessageID, formatPlanMarkdown(result))
	if len(items) > 0 {
		b.send(msg.Chat.ID, formatShoppingMarkdown(items))
	}
}

func (b *Bot) handleSwapRequest(msg *tgbotapi.Message) {
	ctx := context.Background()
	category, decision := b.swapMatcher.Match(ctx, msg.Text)

	switch decision {
	case swap.DecisionAuto:
		b.send(msg.Chat.ID, fmt.Sprintf("🔄 Swapping in a *%s* dish.", category))
	case swap.DecisionConfirm:
		var sb strings.Builder
		sb.WriteString("🤔 What would you like instead? Options:\n")
		for _, c := range swap.Categories {
			sb.WriteString(fmt.Sprintf("• %s\n", c))
		}
		b.send(msg.Chat.ID, sb.String())
	default:
		b.send(msg.Chat.ID, "I couldn't match that to a backup dish, so I left your plan unchanged.")
	}
}

func (b *Bot) handleClipperRequest(msg *tgbotapi.Message) {
	statusText := "✂️ *Clipping recipe...* \n(Extracting and saving to your collection)"
	replyMsg := tgbotapi.NewMessage(msg.Chat.ID, statusText)
	replyMsg.ParseMode = "Markdown"
	sentMsg, err := b.api.Send(replyMsg)
	if err != nil {
		log.Error().Err(err).Msg("failed to send initial reply")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	rec, meta, err := b.recipeClip.ClipURL(ctx, msg.Text)
	if recordErr := b.metricsStore.RecordMeta(ctx, meta); recordErr != nil {
		log.Warn().Err(recordErr).Msg("failed to record metrics")
	}

	var finalText string
	if err != nil {
		log.Error().Err(err).Msg("error clipping recipe")
		safeErr := strings.ReplaceAll(err.Error(), "`", "'")
		finalText = fmt.Sprintf("❌ *Error clipping recipe:*\n```\n%v\n```", safeErr)
	} else {
		finalText = fmt.Sprintf("✅ *Recipe Saved!*\n\n*Title:* %s\n*Tags:* %s", rec.Name, strings.Join(rec.Tags, ", "))
	}
	b.edit(msg.Chat.ID, sentMsg.MessageID, finalText)
}

func (b *Bot) handleMetricsRequest(msg *tgbotapi.Message) {
	if msg.From.ID != b.cfg.AdminTelegramID {
		b.send(msg.Chat.ID, "⛔ *Access Denied*: Admin only.")
		return
	}

	ctx := context.Background()
	usage, err := b.metricsStore.GetDailyUsage(ctx, 7)
	if err != nil {
		b.send(msg.Chat.ID, "❌ Error fetching metrics.")
		return
	}

	health := metrics.GetSysHealth(filepath.Dir(b.cfg.DBPath))

	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")
	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution))
	}
	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Disk Data: %s\n", health.DataDiskSize))

	b.send(msg.Chat.ID, sb.String())
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	if _, err := b.api.Send(msg); err != nil {
		log.Warn().Err(err).Msg("failed to send message")
	}
}

func (b *Bot) edit(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = "Markdown"
	if _, err := b.api.Send(edit); err != nil {
		log.Warn().Err(err).Msg("failed to edit message")
	}
}

func formatPlanMarkdown(result *planner.PlanResult) string {
	var sb strings.Builder
	sb.WriteString("📅 *Weekly Dinner Plan*\n\n")

	if len(result.Selections) == 0 {
		sb.WriteString("_No recipes matched your request. Try loosening the constraints._\n")
		return sb.String()
	}

	for _, sel := range result.Selections {
		sb.WriteString(fmt.Sprintf("*%s*: %s", sel.Date, sel.Recipe.Name))
		if sel.Recipe.PrepTime != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", sel.Recipe.PrepTime))
		}
		sb.WriteString("\n")
	}

	if len(result.HardFailures) > 0 || len(result.SoftWarnings) > 0 {
		sb.WriteString("\n⚠️ *Notes*\n")
		for _, f := range result.HardFailures {
			sb.WriteString(fmt.Sprintf("• %s: %s (%s)\n", f.Date, f.Reason, f.RecipeName))
		}
		for _, f := range result.SoftWarnings {
			sb.WriteString(fmt.Sprintf("• %s: %s\n", f.Date, f.Reason))
		}
	}

	return sb.String()
}

func formatShoppingMarkdown(items []string) string {
	var sb strings.Builder
	sb.WriteString("🛒 *Shopping List*\n\n")
	for _, item := range items {
		sb.WriteString(fmt.Sprintf("• %s\n", item))
	}
	return sb.String()
}
