package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/shapemate-backend/internal/nutrition/lookup"
	"github.com/yungbote/shapemate-backend/internal/platform/apierr"
	"github.com/yungbote/shapemate-backend/internal/platform/logger"
)

const maxMealItems = 50

type FoodService interface {
	Search(ctx context.Context, query string) (*lookup.NutrientRecord, error)
	MealNutrition(ctx context.Context, items []lookup.MealItem) (lookup.MealNutrition, error)
	Alternatives(ctx context.Context, food string) ([]string, error)
}

type foodService struct {
	log    *logger.Logger
	lookup lookup.Client
}

func NewFoodService(log *logger.Logger, client lookup.Client) FoodService {
	return &foodService{log: log.With("service", "FoodService"), lookup: client}
}

func (fs *foodService) Search(ctx context.Context, query string) (*lookup.NutrientRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apierr.BadRequest("missing_query", errors.New("query is required"))
	}
	rec, ok := fs.lookup.SearchFood(ctx, query)
	if !ok {
		return nil, apierr.NotFound("food_not_found", fmt.Errorf("no nutrient data for %q", query))
	}
	return rec, nil
}

func (fs *foodService) MealNutrition(ctx context.Context, items []lookup.MealItem) (lookup.MealNutrition, error) {
	if len(items) == 0 {
		return lookup.MealNutrition{}, apierr.BadRequest("empty_meal", errors.New("meal has no items"))
	}
	if len(items) > maxMealItems {
		return lookup.MealNutrition{}, apierr.BadRequest("meal_too_large", fmt.Errorf("at most %d items", maxMealItems))
	}
	for _, it := range items {
		if strings.TrimSpace(it.Food) == "" || it.QuantityG <= 0 {
			return lookup.MealNutrition{}, apierr.BadRequest("invalid_meal_item", fmt.Errorf("item %q needs a name and a positive quantity", it.Food))
		}
	}
	return fs.lookup.CalculateMealNutrition(ctx, items), nil
}

func (fs *foodService) Alternatives(ctx context.Context, food string) ([]string, error) {
	food = strings.TrimSpace(food)
	if food == "" {
		return nil, apierr.BadRequest("missing_query", errors.New("food is required"))
	}
	out := fs.lookup.SuggestAlternatives(ctx, food)
	if out == nil {
		out = []string{}
	}
	return out, nil
}
