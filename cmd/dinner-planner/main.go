package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"dinner-planner/internal/clipper"
	"dinner-planner/internal/config"
	"dinner-planner/internal/database"
	"dinner-planner/internal/history"
	"dinner-planner/internal/llm"
	"dinner-planner/internal/metrics"
	"dinner-planner/internal/planner"
	"dinner-planner/internal/recipe"
	"dinner-planner/internal/shopping"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	clipURL := flag.String("clip", "", "import a recipe from the given URL")
	planMsg := flag.String("plan", "", "generate a plan for the given request")
	dates := flag.String("dates", "", "comma-separated ISO dates to plan (default: next Monday through Sunday)")
	userID := flag.String("user", "cli", "user identifier for seeding and history")
	cooked := flag.String("cooked", "", "record a cooked meal by name")
	allergy := flag.String("allergy", "", "add an allergen exclusion; prefix with '-' to remove one")
	flag.Parse()

	if err := run(*clipURL, *planMsg, *dates, *userID, *cooked, *allergy); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func run(clipURL, planMsg, dates, userID, cooked, allergy string) error {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using process environment")
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx := context.Background()

	db, err := database.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	textGen, closer, err := newTextGenerator(ctx, cfg)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	recipeRepo, err := recipe.NewRepository(db.SQL)
	if err != nil {
		return fmt.Errorf("failed to create recipe repository: %w", err)
	}
	metricsStore := metrics.NewStore(db.SQL)

	switch {
	case clipURL != "":
		return runClip(ctx, textGen, recipeRepo, metricsStore, clipURL)
	case planMsg != "":
		return runPlan(ctx, db, textGen, recipeRepo, metricsStore, planMsg, dates, userID)
	case cooked != "":
		return runCooked(ctx, db, recipeRepo, cooked, userID)
	case allergy != "":
		return runAllergy(ctx, db, allergy, userID)
	default:
		flag.Usage()
		return fmt.Errorf("nothing to do: pass -clip, -plan, -cooked or -allergy")
	}
}

func runCooked(ctx context.Context, db *database.DB, recipeRepo *recipe.Repository, name, userID string) error {
	recipeID := ""
	if rec, err := recipeRepo.FindByName(ctx, name); err != nil {
		log.Warn().Err(err).Str("name", name).Msg("failed to look up cooked recipe")
	} else if rec != nil {
		recipeID = rec.ID
		name = rec.Name
	}

	if err := history.NewRepository(db.SQL).RecordCooked(ctx, userID, recipeID, name, time.Now()); err != nil {
		return fmt.Errorf("failed to record cooked meal: %w", err)
	}
	fmt.Printf("Recorded %q as cooked\n", name)
	return nil
}

func runAllergy(ctx context.Context, db *database.DB, allergy, userID string) error {
	historyRepo := history.NewRepository(db.SQL)

	if rest := strings.TrimPrefix(allergy, "-"); rest != allergy {
		if err := historyRepo.RemoveAllergen(ctx, userID, rest); err != nil {
			return fmt.Errorf("failed to remove allergen: %w", err)
		}
	} else if err := historyRepo.AddAllergen(ctx, userID, allergy); err != nil {
		return fmt.Errorf("failed to add allergen: %w", err)
	}

	allergens, err := historyRepo.Allergens(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load allergens: %w", err)
	}
	fmt.Printf("Excluded allergens: %s\n", strings.Join(allergens, ", "))
	return nil
}

func newTextGenerator(ctx context.Context, cfg *config.Config) (llm.TextGenerator, llm.Closer, error) {
	if cfg.GeminiAPIKey != "" {
		gen, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		closer, _ := gen.(llm.Closer)
		return gen, closer, nil
	}
	return llm.NewGroqClient(cfg.GroqAPIKey), nil, nil
}

func runClip(ctx context.Context, textGen llm.TextGenerator, recipeRepo *recipe.Repository, metricsStore *metrics.Store, url string) error {
	clip := clipper.NewClipper(textGen, recipeRepo)
	rec, meta, err := clip.ClipURL(ctx, url)
	if recordErr := metricsStore.RecordMeta(ctx, meta); recordErr != nil {
		log.Warn().Err(recordErr).Msg("failed to record metrics")
	}
	if err != nil {
		return fmt.Errorf("failed to clip recipe: %w", err)
	}

	fmt.Printf("Saved %q (%s)\n", rec.Name, strings.Join(rec.Tags, ", "))
	return nil
}

func runPlan(
	ctx context.Context,
	db *database.DB,
	textGen llm.TextGenerator,
	recipeRepo *recipe.Repository,
	metricsStore *metrics.Store,
	planMsg, dates, userID string,
) error {
	historyRepo := history.NewRepository(db.SQL)
	planRepo := planner.NewPlanRepository(db.SQL)
	shoppingRepo := shopping.NewRepository(db.SQL)
	svc := planner.NewService(recipeRepo, textGen)

	weekStart := planner.GetNextMonday(time.Now())
	dateList := planner.WeekDates(weekStart)
	if dates != "" {
		dateList = strings.Split(dates, ",")
		for i := range dateList {
			dateList[i] = strings.TrimSpace(dateList[i])
		}
		if parsed, err := time.Parse("2006-01-02", dateList[0]); err == nil {
			weekStart = parsed
		}
	}

	if exists, err := planRepo.ExistsForWeek(ctx, userID, weekStart); err != nil {
		log.Warn().Err(err).Msg("failed to check for an existing plan")
	} else if exists {
		log.Info().Str("week_start", weekStart.Format("2006-01-02")).
			Msg("a plan already exists for this week, generating a replacement")
	}

	recentNames, err := historyRepo.RecentNames(ctx, userID, 21)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load recent meals, continuing without freshness data")
	}
	allergens, err := historyRepo.Allergens(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load allergen exclusions, continuing without")
	}

	result, err := svc.Plan(ctx, planner.PlanRequest{
		UserID:           userID,
		Message:          planMsg,
		Dates:            dateList,
		WeekStart:        weekStart,
		RecentNames:      recentNames,
		ExcludeAllergens: allergens,
	})
	if err != nil {
		return fmt.Errorf("failed to generate plan: %w", err)
	}

	for _, m := range result.Metas {
		if err := metricsStore.RecordMeta(ctx, m); err != nil {
			log.Warn().Err(err).Msg("failed to record metrics")
		}
	}

	planID, err := planRepo.Save(ctx, userID, weekStart, result)
	if err != nil {
		log.Warn().Err(err).Msg("failed to save meal plan")
	}

	fmt.Println("\n=== WEEKLY DINNER PLAN ===")
	for _, sel := range result.Selections {
		fmt.Printf("%-12s %s\n", sel.Date, sel.Recipe.Name)
	}
	if len(result.Selections) == 0 {
		fmt.Println("(no recipes matched the request)")
	}

	for _, f := range result.HardFailures {
		fmt.Printf("! %s: %s (%s)\n", f.Date, f.Reason, f.RecipeName)
	}
	for _, f := range result.SoftWarnings {
		fmt.Printf("~ %s: %s\n", f.Date, f.Reason)
	}

	items := shopping.Consolidate(result.Selections)
	if len(items) > 0 {
		fmt.Println("\n=== SHOPPING LIST ===")
		for _, item := range items {
			fmt.Printf("- %s\n", item)
		}
		if planID != "" {
			if _, err := shoppingRepo.Save(ctx, &shopping.ShoppingList{
				UserID:     userID,
				MealPlanID: planID,
				Items:      items,
			}); err != nil {
				log.Warn().Err(err).Msg("failed to save shopping list")
			}
		}
	}

	return nil
}
